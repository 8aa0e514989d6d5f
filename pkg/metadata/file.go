package metadata

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"
)

// FileProvider serves reference data from a YAML description, for runs
// without access to the reference databases.
//
//	client:
//	  short_name: abc
//	  full_name: ABC Holdings
//	  client_id: 4201
//	  project_id: 77
//	  industry_id: 3
//	  file_project_id: 912
//	  transfer_info_id: 15001
//	distributors:
//	  - id: 10
//	    name: MCLANE CO
//	    start: 202401
//	    end: 202452
type FileProvider struct {
	doc fileDocument
}

type fileDocument struct {
	Client       Client            `json:"client"`
	Distributors []fileDistributor `json:"distributors"`
}

type fileDistributor struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

// LoadFileProvider reads and validates a client description.
func LoadFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading client description: %w", err)
	}
	return ParseFileProvider(data)
}

// ParseFileProvider parses a client description.
func ParseFileProvider(data []byte) (*FileProvider, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing client description: %w", err)
	}
	c := doc.Client
	switch {
	case strings.TrimSpace(c.ShortName) == "":
		return nil, &MissingFieldError{Field: "client.short_name"}
	case c.ClientID == 0:
		return nil, &MissingFieldError{Field: "client.client_id"}
	case c.ProjectID == 0:
		return nil, &MissingFieldError{Field: "client.project_id"}
	case c.FileProjectID == 0:
		return nil, &MissingFieldError{Field: "client.file_project_id"}
	case c.TransferInfoID == 0:
		return nil, &MissingFieldError{Field: "client.transfer_info_id"}
	}
	for i, d := range doc.Distributors {
		if d.ID == 0 {
			return nil, &MissingFieldError{Field: fmt.Sprintf("distributors[%d].id", i)}
		}
	}
	return &FileProvider{doc: doc}, nil
}

// Client implements Provider.
func (p *FileProvider) Client(_ context.Context, shortName string) (Client, error) {
	if !strings.EqualFold(p.doc.Client.ShortName, shortName) {
		return Client{}, fmt.Errorf("client description is for %q, not %q: %w",
			p.doc.Client.ShortName, shortName, ErrClientNotFound)
	}
	c := p.doc.Client
	c.ShortName = shortName
	c.EnvironmentTag = ""
	return c, nil
}

// DistributorWeeks implements Provider.
func (p *FileProvider) DistributorWeeks(_ context.Context, _ Client, names []string) (DistributorWeekMap, error) {
	weeks := DistributorWeekMap{}
	for _, d := range p.doc.Distributors {
		for _, name := range names {
			if strings.Contains(strings.ToUpper(d.Name), strings.ToUpper(name)) {
				weeks[d.ID] = WeekRange{Start: d.Start, End: d.End}
				break
			}
		}
	}
	return weeks, nil
}
