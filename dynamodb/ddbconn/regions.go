package ddbconn

import (
	"errors"
	"fmt"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// ErrUnknownRegion is returned for a region code outside the catalogue.
var ErrUnknownRegion = errors.New("unknown region")

// Region is a selectable AWS region.
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (r Region) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.Code)
}

var regions = []Region{
	{Code: "us-east-1", Name: "US East (N. Virginia)"},
	{Code: "us-east-2", Name: "US East (Ohio)"},
	{Code: "us-west-1", Name: "US West (N. California)"},
	{Code: "us-west-2", Name: "US West (Oregon)"},
	{Code: "af-south-1", Name: "Africa (Cape Town)"},
	{Code: "ap-east-1", Name: "Asia Pacific (Hong Kong)"},
	{Code: "ap-south-1", Name: "Asia Pacific (Mumbai)"},
	{Code: "ap-northeast-3", Name: "Asia Pacific (Osaka)"},
	{Code: "ap-northeast-2", Name: "Asia Pacific (Seoul)"},
	{Code: "ap-southeast-1", Name: "Asia Pacific (Singapore)"},
	{Code: "ap-southeast-2", Name: "Asia Pacific (Sydney)"},
	{Code: "ap-northeast-1", Name: "Asia Pacific (Tokyo)"},
	{Code: "ca-central-1", Name: "Canada (Central)"},
	{Code: "eu-central-1", Name: "Europe (Frankfurt)"},
	{Code: "eu-west-1", Name: "Europe (Ireland)"},
	{Code: "eu-west-2", Name: "Europe (London)"},
	{Code: "eu-south-1", Name: "Europe (Milan)"},
	{Code: "eu-west-3", Name: "Europe (Paris)"},
	{Code: "eu-north-1", Name: "Europe (Stockholm)"},
	{Code: "me-south-1", Name: "Middle East (Bahrain)"},
	{Code: "sa-east-1", Name: "South America (São Paulo)"},
}

// Regions returns the region catalogue in display order.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// LookupRegion finds a region by code.
func LookupRegion(code string) (Region, error) {
	for _, r := range regions {
		if r.Code == code {
			return r, nil
		}
	}
	return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, code)
}
