package token

import "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

// TokenMarshaler round-trips a LastEvaluatedKey as an opaque byte token.
// The scope binds a token to the partition or table it came from, so a
// token minted for one caller cannot resume another caller's query.
type TokenMarshaler interface {
	Marshal(scope string, lastKey map[string]types.AttributeValue) ([]byte, error)

	Unmarshal(scope string, token []byte) (map[string]types.AttributeValue, error)
}
