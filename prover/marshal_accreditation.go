package prover

import (
	"encoding/json"
	"math/big"
)

type AccreditationRequestJSON struct {
	Level           uint64 `json:"level"`
	MinimumLevel    uint64 `json:"minimumLevel"`
	IssuerKey       string `json:"issuerKey"`
	IssuerNonce     string `json:"issuerNonce"`
	AttestationHash string `json:"attestationHash,omitempty"`
	Salt            string `json:"salt,omitempty"`
}

func (r *AccreditationRequest) MarshalJSON() ([]byte, error) {
	requestJson := AccreditationRequestJSON{
		Level:        r.Level,
		MinimumLevel: r.MinimumLevel,
		IssuerKey:    toHex(r.IssuerKey),
		IssuerNonce:  toHex(r.IssuerNonce),
	}
	if r.AttestationHash != nil {
		requestJson.AttestationHash = toHex(r.AttestationHash)
	}
	if r.Salt != nil {
		requestJson.Salt = toHex(r.Salt)
	}
	return json.Marshal(requestJson)
}

func (r *AccreditationRequest) UnmarshalJSON(data []byte) error {
	var requestJson AccreditationRequestJSON
	err := json.Unmarshal(data, &requestJson)
	if err != nil {
		return err
	}

	r.Level = requestJson.Level
	r.MinimumLevel = requestJson.MinimumLevel

	r.IssuerKey = new(big.Int)
	if err = fromHex(r.IssuerKey, requestJson.IssuerKey); err != nil {
		return err
	}
	r.IssuerNonce = new(big.Int)
	if err = fromHex(r.IssuerNonce, requestJson.IssuerNonce); err != nil {
		return err
	}

	r.AttestationHash = nil
	if requestJson.AttestationHash != "" {
		r.AttestationHash = new(big.Int)
		if err = fromHex(r.AttestationHash, requestJson.AttestationHash); err != nil {
			return err
		}
	}
	r.Salt = nil
	if requestJson.Salt != "" {
		r.Salt = new(big.Int)
		if err = fromHex(r.Salt, requestJson.Salt); err != nil {
			return err
		}
	}
	return nil
}
