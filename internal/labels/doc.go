// Package labels converts source-space boxes to YOLO labels and persists them.
//
// A YOLO label line is
//
//	<class_index> <x_center> <y_center> <width> <height>
//
// with the four spatial values normalized to [0,1] relative to the image the
// label belongs to and written with six decimals. The origin is the top-left
// corner.
//
// # Dataset Layout
//
// A Store owns two sibling directories under a dataset root:
//
//	<root>/images/<name>.jpg
//	<root>/labels/<name>.txt
//
// The label file shares the image's basename. Exactly one label file is
// written per image: the first write wins and later writes are reported as
// skipped.
//
// # Class Registry
//
// The Registry is the dataset YAML consumed by the trainer:
//
//	train: yolo_training_data/images
//	val: yolo_training_data/images
//	nc: 2
//	names:
//	  - domino
//	  - card
//
// A class index is its position in names. Names are only ever appended, since
// reordering or removing one would silently relabel every file already
// written.
package labels
