package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// strValue builds a one-entry expression value map for a string placeholder.
func strValue(placeholder, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		placeholder: &types.AttributeValueMemberS{Value: value},
	}
}
