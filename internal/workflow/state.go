package workflow

// State is a pipeline checkpoint. States only advance.
type State int

const (
	StateInit State = iota
	StateTextExtracted
	StateAudioDone
	StateImageDone
	StateVideoDone
	StateConcatenated
	StateDone
)

var stateNames = [...]string{
	StateInit:          "init",
	StateTextExtracted: "text_extracted",
	StateAudioDone:     "audio_done",
	StateImageDone:     "image_done",
	StateVideoDone:     "video_done",
	StateConcatenated:  "concatenated",
	StateDone:          "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
