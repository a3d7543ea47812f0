package prover

import (
	"encoding/json"
	"math/big"
)

type BlacklistRequestJSON struct {
	Identity  string   `json:"identity"`
	Members   []string `json:"members"`
	Challenge string   `json:"challenge"`
}

func (r *BlacklistRequest) MarshalJSON() ([]byte, error) {
	requestJson := BlacklistRequestJSON{
		Identity:  toHex(r.Identity),
		Members:   make([]string, len(r.Members)),
		Challenge: toHex(r.Challenge),
	}
	for i, m := range r.Members {
		requestJson.Members[i] = toHex(m)
	}
	return json.Marshal(requestJson)
}

func (r *BlacklistRequest) UnmarshalJSON(data []byte) error {
	var requestJson BlacklistRequestJSON
	err := json.Unmarshal(data, &requestJson)
	if err != nil {
		return err
	}

	r.Identity = new(big.Int)
	if err = fromHex(r.Identity, requestJson.Identity); err != nil {
		return err
	}

	r.Challenge = new(big.Int)
	if err = fromHex(r.Challenge, requestJson.Challenge); err != nil {
		return err
	}

	r.Members = make([]*big.Int, len(requestJson.Members))
	for i, m := range requestJson.Members {
		r.Members[i] = new(big.Int)
		if err = fromHex(r.Members[i], m); err != nil {
			return err
		}
	}
	return nil
}
