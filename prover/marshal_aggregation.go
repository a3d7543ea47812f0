package prover

import (
	"encoding/json"
	"math/big"
)

type AggregationRequestJSON struct {
	ScoreKyc     uint64    `json:"scoreKyc"`
	ScoreAml     uint64    `json:"scoreAml"`
	ScoreJur     uint64    `json:"scoreJur"`
	ScoreAcc     uint64    `json:"scoreAcc"`
	Weights      [4]uint64 `json:"weights"`
	MinimumScore uint64    `json:"minimumScore"`
	Salt         string    `json:"salt,omitempty"`
}

func (r *AggregationRequest) MarshalJSON() ([]byte, error) {
	requestJson := AggregationRequestJSON{
		ScoreKyc:     r.ScoreKyc,
		ScoreAml:     r.ScoreAml,
		ScoreJur:     r.ScoreJur,
		ScoreAcc:     r.ScoreAcc,
		Weights:      r.Weights,
		MinimumScore: r.MinimumScore,
	}
	if r.Salt != nil {
		requestJson.Salt = toHex(r.Salt)
	}
	return json.Marshal(requestJson)
}

func (r *AggregationRequest) UnmarshalJSON(data []byte) error {
	var requestJson AggregationRequestJSON
	err := json.Unmarshal(data, &requestJson)
	if err != nil {
		return err
	}

	r.ScoreKyc = requestJson.ScoreKyc
	r.ScoreAml = requestJson.ScoreAml
	r.ScoreJur = requestJson.ScoreJur
	r.ScoreAcc = requestJson.ScoreAcc
	r.Weights = requestJson.Weights
	r.MinimumScore = requestJson.MinimumScore

	r.Salt = nil
	if requestJson.Salt != "" {
		r.Salt = new(big.Int)
		if err = fromHex(r.Salt, requestJson.Salt); err != nil {
			return err
		}
	}
	return nil
}
