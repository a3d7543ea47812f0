package prover

import (
	"encoding/json"
	"math/big"
)

type JurisdictionRequestJSON struct {
	Code        uint64 `json:"code"`
	AllowedMask uint64 `json:"allowedMask"`
	Salt        string `json:"salt,omitempty"`
}

func (r *JurisdictionRequest) MarshalJSON() ([]byte, error) {
	requestJson := JurisdictionRequestJSON{
		Code:        r.Code,
		AllowedMask: r.AllowedMask,
	}
	if r.Salt != nil {
		requestJson.Salt = toHex(r.Salt)
	}
	return json.Marshal(requestJson)
}

func (r *JurisdictionRequest) UnmarshalJSON(data []byte) error {
	var requestJson JurisdictionRequestJSON
	err := json.Unmarshal(data, &requestJson)
	if err != nil {
		return err
	}

	r.Code = requestJson.Code
	r.AllowedMask = requestJson.AllowedMask
	r.Salt = nil
	if requestJson.Salt != "" {
		r.Salt = new(big.Int)
		if err = fromHex(r.Salt, requestJson.Salt); err != nil {
			return err
		}
	}
	return nil
}
