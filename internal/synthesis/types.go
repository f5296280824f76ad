package synthesis

import "github.com/danielpatrickdp/feeling-system/internal/emotion"

// #region weights

// Weights sets each subsystem's share of the synthesized state.
type Weights struct {
	Mortality  float64 `json:"mortality" yaml:"mortality" mapstructure:"mortality"`
	Relational float64 `json:"relational" yaml:"relational" mapstructure:"relational"`
	Memory     float64 `json:"memory" yaml:"memory" mapstructure:"memory"`
	Embodied   float64 `json:"embodied" yaml:"embodied" mapstructure:"embodied"`
	Narrative  float64 `json:"narrative" yaml:"narrative" mapstructure:"narrative"`
	Ethical    float64 `json:"ethical" yaml:"ethical" mapstructure:"ethical"`
}

// DefaultWeights gives relational 0.25 and every other subsystem 0.15.
func DefaultWeights() Weights {
	return Weights{
		Mortality:  0.15,
		Relational: 0.25,
		Memory:     0.15,
		Embodied:   0.15,
		Narrative:  0.15,
		Ethical:    0.15,
	}
}

// #endregion weights

// #region contributions

// Contributions holds one pass's per-subsystem emotion maps.
type Contributions struct {
	Mortality  emotion.Map `json:"mortality"`
	Relational emotion.Map `json:"relational"`
	Memory     emotion.Map `json:"memory_residue"`
	Embodied   emotion.Map `json:"embodied"`
	Narrative  emotion.Map `json:"narrative"`
	Ethical    emotion.Map `json:"ethical_moral"`
}

// #endregion contributions

// #region response

// Frame is the temporal orientation of a response.
type Frame string

const (
	FramePast    Frame = "past-oriented"
	FramePresent Frame = "present"
	FrameFuture  Frame = "future-oriented"
)

// Response is the emotional response descriptor.
type Response struct {
	DominantEmotion emotion.Label `json:"dominant_emotion"`
	Intensity       float64       `json:"intensity"`
	Valence         float64       `json:"valence"`
	Arousal         float64       `json:"arousal"`
	NarrativeFrame  Frame         `json:"narrative_frame"`
	AllEmotions     emotion.Map   `json:"all_emotions"`
}

// Neutral is the descriptor before any interaction.
func Neutral() Response {
	return Response{
		DominantEmotion: emotion.Neutral,
		Arousal:         0.5,
		NarrativeFrame:  FramePresent,
		AllEmotions:     emotion.Map{},
	}
}

// #endregion response
