package session

import "encoding/json"

// Record is the store-side half of a refresh token. The signed token a
// client holds is honored only while its Record is alive; deleting the
// Record revokes the token regardless of its signed expiry.
//
// The JSON shape and the key layout (`refresh_token:<tokenID>`,
// `user_sessions:<subjectID>`) are a stable contract that external
// tooling may read directly.
type Record struct {
	SubjectID string `json:"subjectId"`
	CreatedAt int64  `json:"createdAt"` // unix milliseconds
}

func encodeRecord(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

func decodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
