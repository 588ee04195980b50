package foodprep

// TFRecord object detection specific functionality.

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// TFRecordLabelID is the TFRecord label id of a class. Id 0 is reserved for the background.
func TFRecordLabelID(classID int) int64 {
	return int64(classID) + 1
}

// toTFFeatures converts one labelled image to the feature map of a tf.Example.
func toTFFeatures(e ManifestEntry, classes ClassTable) (TFFeatureMap, error) {
	config, format, err := decodeImageConfig(e.ImagePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode the image metadata")
	}
	imgData, err := os.ReadFile(e.ImagePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the image")
	}
	boxes, err := LoadBoundingBoxes(e.LabelPath)
	if err != nil {
		return nil, err
	}

	f := make(TFFeatureMap, 16)
	f["image/height"] = config.Height
	f["image/width"] = config.Width
	f["image/filename"] = e.Name
	f["image/source_id"] = e.Name
	f["image/encoded"] = imgData
	f["image/format"] = format

	clamp := func(v float64) float32 {
		return float32(math.Max(0, math.Min(1, v)))
	}

	n := len(boxes)
	xmins := make([]float32, n)
	ymins := make([]float32, n)
	xmaxs := make([]float32, n)
	ymaxs := make([]float32, n)
	texts := make([]string, n)
	labels := make([]int64, n)
	for i, b := range boxes {
		xmins[i] = clamp(b.XCenter - b.Width/2)
		ymins[i] = clamp(b.YCenter - b.Height/2)
		xmaxs[i] = clamp(b.XCenter + b.Width/2)
		ymaxs[i] = clamp(b.YCenter + b.Height/2)
		texts[i] = classes.Name(b.ClassID)
		labels[i] = TFRecordLabelID(b.ClassID)
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = texts
	f["image/object/class/label"] = labels

	return f, nil
}

// WriteTFRecord does a streaming conversion, serialisation and file write of the labelled entries
// to one or more TFRecord files stored under recordFilePath (with suffixes added when
// numShards > 1). Entries without a label are skipped.
func WriteTFRecord(recordFilePath string, entries []ManifestEntry, classes ClassTable,
		numShards int) (err error) {

	defer func() {
		if e := recover(); e != nil {
			err = errors.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards <= 0 {
		numShards = 1
	}
	if len(entries) == 0 {
		log.Printf("No entries to write to %q", recordFilePath)
		return nil
	}

	var shardFile *os.File
	defer func() {
		if shardFile != nil {
			closeWithErrCheck(shardFile, &err)
		}
	}()
	shardSize := int(math.Ceil(float64(len(entries)) / float64(numShards)))
	shardIdx := -1
	written := 0

	for i, e := range entries {
		// Check if a new shard file needs to be opened for writing.
		if i%shardSize == 0 {
			shardIdx++
			if shardFile != nil {
				if err := shardFile.Close(); err != nil {
					return err
				}
				shardFile = nil
			}

			shardPath := recordFilePath
			if numShards > 1 {
				shardPath += fmt.Sprintf("-%05d-of-%05d", shardIdx, numShards)
			}
			f, err := os.Create(shardPath)
			if err != nil {
				return errors.Wrapf(err, "failed to create shard at %q", shardPath)
			}
			shardFile = f
		}

		if !e.HasLabel() {
			logSkip(e.ImagePath, ErrMissingLabel)
			continue
		}
		features, err := toTFFeatures(e, classes)
		if err != nil {
			log.Printf("Failed to convert %q: %v", e.ImagePath, err)
			continue
		}
		if err := writeTFRecordExample(shardFile, example.New(features)); err != nil {
			return errors.Wrapf(err, "failed to write example for %q", e.ImagePath)
		}
		written++
	}

	log.Printf("Wrote %d examples to %q", written, recordFilePath)
	return nil
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}

// WriteLabelMap writes the classes in prototxt StringIntLabelMap format to path.
func WriteLabelMap(path string, classes ClassTable) error {
	var b strings.Builder
	for id, name := range classes.Names() {
		fmt.Fprintf(&b, "item {\n  id: %d\n  name: %q\n}\n", TFRecordLabelID(id), name)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return errors.Wrapf(err, "failed to write the label map %q", path)
	}
	return nil
}
