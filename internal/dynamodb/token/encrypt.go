package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"philcali.me/compliance/internal/data"
)

type EncryptMode func(cipher.Block) (cipher.AEAD, error)

type EncryptionTokenMarshaler struct {
	Mode EncryptMode
}

func NewGCM() *EncryptionTokenMarshaler {
	return &EncryptionTokenMarshaler{
		Mode: cipher.NewGCM,
	}
}

type _envelope struct {
	Nonce      []byte `json:"n"`
	Ciphertext []byte `json:"c"`
}

func _serializeLastKey(lastKey map[string]types.AttributeValue) ([]byte, error) {
	if len(lastKey) == 0 {
		return nil, nil
	}
	token := make(data.NextToken, len(lastKey))
	for field, value := range lastKey {
		inner := make(map[string]string, 1)
		switch av := value.(type) {
		case *types.AttributeValueMemberS:
			inner["S"] = av.Value
		case *types.AttributeValueMemberN:
			inner["N"] = av.Value
		case *types.AttributeValueMemberB:
			inner["B"] = string(av.Value)
		}
		token[field] = inner
	}
	return json.Marshal(token)
}

func _deserializeLastKey(serialized []byte) (map[string]types.AttributeValue, error) {
	if len(serialized) == 0 {
		return nil, nil
	}
	var token data.NextToken
	if err := json.Unmarshal(serialized, &token); err != nil {
		return nil, err
	}
	lastKey := make(map[string]types.AttributeValue, len(token))
	for field, inner := range token {
		if sv, ok := inner["S"]; ok {
			lastKey[field] = &types.AttributeValueMemberS{Value: sv}
		}
		if nv, ok := inner["N"]; ok {
			lastKey[field] = &types.AttributeValueMemberN{Value: nv}
		}
		if bv, ok := inner["B"]; ok {
			lastKey[field] = &types.AttributeValueMemberB{Value: []byte(bv)}
		}
	}
	return lastKey, nil
}

func (em *EncryptionTokenMarshaler) _aead(scope string) (cipher.AEAD, error) {
	hash := sha256.Sum256([]byte(scope))
	block, err := aes.NewCipher(hash[:])
	if err != nil {
		return nil, err
	}
	return em.Mode(block)
}

func (em *EncryptionTokenMarshaler) Marshal(scope string, lastKey map[string]types.AttributeValue) ([]byte, error) {
	serialized, err := _serializeLastKey(lastKey)
	if err != nil || serialized == nil {
		return nil, err
	}
	aead, err := em._aead(scope)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	envelope, err := json.Marshal(_envelope{
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, serialized, nil),
	})
	if err != nil {
		return nil, err
	}
	encoded := make([]byte, base64.URLEncoding.EncodedLen(len(envelope)))
	base64.URLEncoding.Encode(encoded, envelope)
	return encoded, nil
}

func (em *EncryptionTokenMarshaler) Unmarshal(scope string, token []byte) (map[string]types.AttributeValue, error) {
	if len(token) == 0 {
		return nil, nil
	}
	decoded := make([]byte, base64.URLEncoding.DecodedLen(len(token)))
	n, err := base64.URLEncoding.Decode(decoded, token)
	if err != nil {
		return nil, err
	}
	var envelope _envelope
	if err := json.Unmarshal(decoded[:n], &envelope); err != nil {
		return nil, err
	}
	aead, err := em._aead(scope)
	if err != nil {
		return nil, err
	}
	serialized, err := aead.Open(nil, envelope.Nonce, envelope.Ciphertext, nil)
	if err != nil {
		return nil, err
	}
	return _deserializeLastKey(serialized)
}
