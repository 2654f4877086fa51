package session

import "github.com/okian/dojo/internal/domain/model"

// Kind tags an Emission.
type Kind string

const (
	KindAction     Kind = "action"
	KindKeyFrame   Kind = "keyframe"
	KindDiagnostic Kind = "diagnostic"
)

// Diagnostic codes.
const (
	CodeMalformedPose = "malformed_pose"
	CodeOutOfOrder    = "out_of_order"
	CodeNoDefender    = "no_defender"
)

// Diagnostic reports a frame problem that was skipped over.
type Diagnostic struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	TrackID   string `json:"track_id,omitempty"`
	Timestamp int64  `json:"timestamp_ms"`
}

// Emission is one output of a processed frame. Exactly one of the pointer
// fields is set, matching Kind.
type Emission struct {
	Kind       Kind               `json:"kind"`
	Action     *model.ActionEvent `json:"action,omitempty"`
	KeyFrame   *model.KeyFrame    `json:"keyframe,omitempty"`
	Diagnostic *Diagnostic        `json:"diagnostic,omitempty"`
}

func actionEmission(ev model.ActionEvent) Emission {
	return Emission{Kind: KindAction, Action: &ev}
}

func keyFrameEmission(kf *model.KeyFrame) Emission {
	return Emission{Kind: KindKeyFrame, KeyFrame: kf}
}

func diagnosticEmission(code, msg, track string, ts int64) Emission {
	return Emission{Kind: KindDiagnostic, Diagnostic: &Diagnostic{Code: code, Message: msg, TrackID: track, Timestamp: ts}}
}
