// Package metadata describes the client a deployment is provisioned for and
// the providers that look that client up.
//
// A Client is built once per run, either from the reference databases
// (SQLProvider) or from a YAML description (FileProvider), and is passed by
// value to every stage of the pipeline afterwards.
package metadata

import (
	"fmt"
	"regexp"
	"strings"
)

// Login suffixes of the two schemas every client owns.
const (
	ProductionSuffix = "_XXX_XXX_PRD"
	TestSuffix       = "_XXX_XXX_TST"
)

var shortNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Client is the identity of the client being provisioned.
type Client struct {
	ShortName      string `json:"short_name"`
	FullName       string `json:"full_name"`
	ClientID       int64  `json:"client_id"`
	ProjectID      int64  `json:"project_id"`
	IndustryID     int64  `json:"industry_id"`
	FileProjectID  int64  `json:"file_project_id"`
	TransferInfoID int64  `json:"transfer_info_id"`
	EnvironmentTag string `json:"environment_tag"`
}

// Upper returns the upper-cased short name.
func (c Client) Upper() string { return strings.ToUpper(c.ShortName) }

// Lower returns the lower-cased short name.
func (c Client) Lower() string { return strings.ToLower(c.ShortName) }

// ProductionLogin is the schema that owns production objects. It is also the
// bootstrap user whose scripts must run before any other user's.
func (c Client) ProductionLogin() string { return c.Upper() + ProductionSuffix }

// TestLogin is the schema that owns test objects.
func (c Client) TestLogin() string { return c.Upper() + TestSuffix }

// Validate checks the fields every stage relies on.
//
// The short name is restricted to identifier characters so that substituting
// it into a template can never reintroduce a placeholder token.
func (c Client) Validate() error {
	if strings.TrimSpace(c.ShortName) == "" {
		return &MissingFieldError{Field: "short_name"}
	}
	if !shortNamePattern.MatchString(c.ShortName) {
		return fmt.Errorf("invalid client short name %q: only letters, digits and underscores are allowed", c.ShortName)
	}
	if strings.Contains(c.Lower(), "xyz") {
		return fmt.Errorf("invalid client short name %q: must not contain the template token", c.ShortName)
	}
	if strings.TrimSpace(c.EnvironmentTag) == "" {
		return &MissingFieldError{Field: "environment_tag"}
	}
	return nil
}

// WeekRange is the first and last period code a distributor reports for.
type WeekRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// DistributorWeekMap maps a distributor id to its reporting window.
type DistributorWeekMap map[int64]WeekRange
