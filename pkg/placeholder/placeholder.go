// Package placeholder substitutes the fixed template tokens with values
// taken from a client.
//
// The token set is closed. Tokens a template does not use are simply not
// replaced, and text that looks like a token but is not in the set is left
// verbatim.
package placeholder

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pthm/sqlprovision/pkg/metadata"
)

// Template tokens.
const (
	ClientUpper    = "XYZ"
	ClientLower    = "xyz"
	ClientID       = "XXXXXX_VALUE"
	SchemaName     = "SXXXXXE_VALUE"
	TransferInfoID = "TRANSFER_INFO_OID_VALUE"
	ProjectID      = "PXXXXXVALUE"
	FileProjectID  = "FXXXXXVALUE"
)

// Secret marks where an account password goes in a create-user template.
// It is never replaced by this package.
const Secret = "*******"

var clientFold = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(ClientUpper))

type replacement struct {
	token string
	value func(metadata.Client) (string, bool)
}

func id(get func(metadata.Client) int64) func(metadata.Client) (string, bool) {
	return func(c metadata.Client) (string, bool) {
		v := get(c)
		return strconv.FormatInt(v, 10), v != 0
	}
}

// replacements is applied in order, client tokens first. A token whose value
// is unknown (a zero id) is left in place.
var replacements = []replacement{
	{ClientUpper, func(c metadata.Client) (string, bool) { return c.Upper(), c.ShortName != "" }},
	{ClientLower, func(c metadata.Client) (string, bool) { return c.Lower(), c.ShortName != "" }},
	{ClientID, id(func(c metadata.Client) int64 { return c.ClientID })},
	{SchemaName, func(c metadata.Client) (string, bool) { return "'" + c.ProductionLogin() + "'", c.ShortName != "" }},
	{TransferInfoID, id(func(c metadata.Client) int64 { return c.TransferInfoID })},
	{ProjectID, id(func(c metadata.Client) int64 { return c.ProjectID })},
	{FileProjectID, id(func(c metadata.Client) int64 { return c.FileProjectID })},
}

// Tokens lists the token set in application order.
func Tokens() []string {
	out := make([]string, len(replacements))
	for i, r := range replacements {
		out[i] = r.token
	}
	return out
}

// Substitute replaces every token in content and the client token in
// filename. It returns the new content and the new filename.
func Substitute(content, filename string, c metadata.Client) (string, string) {
	return SubstituteContent(content, c), SubstituteFilename(filename, c)
}

// SubstituteContent replaces every token in content.
func SubstituteContent(content string, c metadata.Client) string {
	for _, r := range replacements {
		if v, ok := r.value(c); ok {
			content = strings.ReplaceAll(content, r.token, v)
		}
	}
	return content
}

// SubstituteFilename replaces the lower client token in a template filename.
func SubstituteFilename(filename string, c metadata.Client) string {
	return strings.ReplaceAll(filename, ClientLower, c.Lower())
}

// ReplaceClientToken replaces only the upper client token.
func ReplaceClientToken(content string, c metadata.Client) string {
	return strings.ReplaceAll(content, ClientUpper, c.Upper())
}

// ReplaceClientTokenFold replaces the client token in any letter case with
// the upper-cased short name.
func ReplaceClientTokenFold(content string, c metadata.Client) string {
	return clientFold.ReplaceAllLiteralString(content, c.Upper())
}

// Unfilled reports the tokens still present in content, which after
// substitution are the ones the client had no value for.
func Unfilled(content string) []string {
	var out []string
	for _, r := range replacements {
		if strings.Contains(content, r.token) {
			out = append(out, r.token)
		}
	}
	return out
}
