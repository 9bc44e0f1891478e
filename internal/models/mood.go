package models

import "fmt"

// MoodLabel is the output of the mood classifier
type MoodLabel string

const (
	MoodCalm   MoodLabel = "calm"
	MoodEnergy MoodLabel = "energy"
	MoodHappy  MoodLabel = "happy"
	MoodSad    MoodLabel = "sad"
)

// moodByClass maps classifier output indices to labels.
var moodByClass = [...]MoodLabel{MoodCalm, MoodEnergy, MoodHappy, MoodSad}

// MoodFromClass converts a classifier class index into a label.
func MoodFromClass(class int) (MoodLabel, error) {
	if class < 0 || class >= len(moodByClass) {
		return "", fmt.Errorf("mood class %d out of range: %w", class, ErrUnsupportedOption)
	}
	return moodByClass[class], nil
}

// MoodLabels returns a copy of every label in class index order.
func MoodLabels() []MoodLabel {
	labels := moodByClass
	return labels[:]
}
