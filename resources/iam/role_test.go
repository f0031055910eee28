package iam

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_ResourceType(t *testing.T) {
	assert.Equal(t, "AWS::IAM::Role", Role{}.ResourceType())
}

func TestRole_InlinePolicies(t *testing.T) {
	role := Role{
		RoleName: "StepFunctionsRole",
		Policies: []Role_Policy{
			{PolicyName: "SendMail", PolicyDocument: map[string]any{"Version": "2012-10-17"}},
		},
	}

	data, err := json.Marshal(role)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"RoleName": "StepFunctionsRole",
		"Policies": [{"PolicyName": "SendMail", "PolicyDocument": {"Version": "2012-10-17"}}]
	}`, string(data))
}
