package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportValue_MarshalJSON(t *testing.T) {
	imp := ImportValue{ExportName: "stateMachineArn"}
	data, err := json.Marshal(imp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::ImportValue": "stateMachineArn"}`, string(data))
}

func TestConcat(t *testing.T) {
	t.Run("plain strings collapse", func(t *testing.T) {
		got := Concat("arn:aws:ses:", "eu-west-1", ":", "123456789012", ":identity/", "info@example.com")
		assert.Equal(t, "arn:aws:ses:eu-west-1:123456789012:identity/info@example.com", got)
	})

	t.Run("intrinsic produces join", func(t *testing.T) {
		got := Concat("arn:aws:ses:eu-west-1:123456789012:identity/", Ref{LogicalName: "SenderIdentity"})
		data, err := json.Marshal(got)
		require.NoError(t, err)
		assert.JSONEq(t, `{"Fn::Join": ["", ["arn:aws:ses:eu-west-1:123456789012:identity/", {"Ref": "SenderIdentity"}]]}`, string(data))
	})
}

func TestPseudoParameters(t *testing.T) {
	tests := []struct {
		name     string
		param    Ref
		expected string
	}{
		{"AWS_REGION", AWS_REGION, `{"Ref": "AWS::Region"}`},
		{"AWS_ACCOUNT_ID", AWS_ACCOUNT_ID, `{"Ref": "AWS::AccountId"}`},
		{"AWS_PARTITION", AWS_PARTITION, `{"Ref": "AWS::Partition"}`},
		{"AWS_URL_SUFFIX", AWS_URL_SUFFIX, `{"Ref": "AWS::URLSuffix"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.param)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestAssumeRolePolicy(t *testing.T) {
	data, err := json.Marshal(AssumeRolePolicy("states.amazonaws.com"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"Service": "states.amazonaws.com"},
			"Action": "sts:AssumeRole"
		}]
	}`, string(data))
}

func TestAllow(t *testing.T) {
	doc := NewPolicyDocument(Allow(Any("states:StartExecution"), Any(ImportValue{ExportName: "stateMachineArn"})))
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Action": ["states:StartExecution"],
			"Resource": [{"Fn::ImportValue": "stateMachineArn"}]
		}]
	}`, string(data))
}

func TestServicePrincipal_Multiple(t *testing.T) {
	data, err := json.Marshal(ServicePrincipal{"states.amazonaws.com", "apigateway.amazonaws.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Service": ["states.amazonaws.com", "apigateway.amazonaws.com"]}`, string(data))
}
