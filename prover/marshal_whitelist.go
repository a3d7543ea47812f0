package prover

import (
	"encoding/json"
	"math/big"
)

type WhitelistRequestJSON struct {
	Identity string   `json:"identity"`
	Members  []string `json:"members"`
}

func (r *WhitelistRequest) MarshalJSON() ([]byte, error) {
	requestJson := WhitelistRequestJSON{
		Identity: toHex(r.Identity),
		Members:  make([]string, len(r.Members)),
	}
	for i, m := range r.Members {
		requestJson.Members[i] = toHex(m)
	}
	return json.Marshal(requestJson)
}

func (r *WhitelistRequest) UnmarshalJSON(data []byte) error {
	var requestJson WhitelistRequestJSON
	err := json.Unmarshal(data, &requestJson)
	if err != nil {
		return err
	}

	r.Identity = new(big.Int)
	if err = fromHex(r.Identity, requestJson.Identity); err != nil {
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
