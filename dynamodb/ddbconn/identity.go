package ddbconn

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Identity describes the principal behind a set of credentials.
type Identity struct {
	Account string `json:"account"`
	ARN     string `json:"arn"`
	UserID  string `json:"userId"`
	// Alias is the account alias, if the principal may list it.
	Alias string `json:"alias,omitempty"`
}

// CallerIdentityAPI is the subset of the STS client used here.
type CallerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// AccountAliasAPI is the subset of the IAM client used here.
type AccountAliasAPI interface {
	ListAccountAliases(ctx context.Context, params *iam.ListAccountAliasesInput, optFns ...func(*iam.Options)) (*iam.ListAccountAliasesOutput, error)
}

// ResolveIdentity calls STS, then IAM for the account alias. A failed alias
// lookup is not an error: most principals lack iam:ListAccountAliases.
// aliases may be nil.
func ResolveIdentity(ctx context.Context, caller CallerIdentityAPI, aliases AccountAliasAPI) (Identity, error) {
	out, err := caller.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, fmt.Errorf("get caller identity: %w", err)
	}
	id := Identity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}

	if aliases == nil {
		return id, nil
	}
	aliasOut, err := aliases.ListAccountAliases(ctx, &iam.ListAccountAliasesInput{MaxItems: aws.Int32(1)})
	if err == nil && len(aliasOut.AccountAliases) > 0 {
		id.Alias = aliasOut.AccountAliases[0]
	}
	return id, nil
}
