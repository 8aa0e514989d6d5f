package metadata

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*SQLProvider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLProvider(db, db, Schemas{}, nil), mock
}

func TestSQLProvider_Client(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM XXXXX_PRD.xref_client WHERE client_short_name = $1")).
		WithArgs("ABC").
		WillReturnRows(sqlmock.NewRows([]string{"client_name", "client_oid", "other"}).
			AddRow("ABC Holdings", int64(4201), "x"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM MXXXXX_PROD.project WHERE project_short_name = $1")).
		WithArgs("ABC").
		WillReturnRows(sqlmock.NewRows([]string{"PROJECT_OID", "INDUSTRY_OID", "FILE_PROJECT_ID"}).
			AddRow(int64(77), []byte("3"), "912"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(TRANSFER_INFO_OID)+1 FROM MXXXXX_PROD.transfer_info")).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(int64(15001)))

	c, err := p.Client(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, Client{
		ShortName:      "abc",
		FullName:       "ABC Holdings",
		ClientID:       4201,
		ProjectID:      77,
		IndustryID:     3,
		FileProjectID:  912,
		TransferInfoID: 15001,
	}, c)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLProvider_ClientMissingColumns(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery("xref_client").
		WillReturnRows(sqlmock.NewRows([]string{"CLIENT_NAME"}).AddRow("ABC Holdings"))

	_, err := p.Client(context.Background(), "abc")
	require.Error(t, err)

	var colErr *MissingColumnsError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, "XXXXX_PRD.xref_client", colErr.Table)
	assert.Equal(t, []string{"CLIENT_OID"}, colErr.Columns)
	assert.Contains(t, err.Error(), "CLIENT_OID")
}

func TestSQLProvider_ClientNotFound(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery("xref_client").
		WillReturnRows(sqlmock.NewRows([]string{"CLIENT_NAME", "CLIENT_OID"}))

	_, err := p.Client(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, IsClientNotFoundErr(err))
}

func TestSQLProvider_ClientQueryError(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery("xref_client").WillReturnError(assert.AnError)

	_, err := p.Client(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "querying XXXXX_PRD.xref_client")
}

func TestSQLProvider_TransferInfoEmptyTable(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery("transfer_info").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(nil))

	next, err := p.nextTransferInfoID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
}

func TestSQLProvider_DistributorWeeks(t *testing.T) {
	p, mock := newMock(t)
	client := Client{ShortName: "abc", ClientID: 4201}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT DIST_ID FROM XXXXX_PRD.xref_distributor WHERE dist_name LIKE $1")).
		WithArgs("%MCLANE%").
		WillReturnRows(sqlmock.NewRows([]string{"DIST_ID"}).AddRow(int64(10)).AddRow(int64(11)))
	mock.ExpectQuery("helpdesk_distributor").
		WithArgs(int64(4201), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"START_PERIOD_CODE", "END_PERIOD_CODE"}).
			AddRow(int64(202401), int64(202452)))
	mock.ExpectQuery("helpdesk_distributor").
		WithArgs(int64(4201), int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"START_PERIOD_CODE", "END_PERIOD_CODE"}))

	weeks, err := p.DistributorWeeks(context.Background(), client, []string{"mclane"})
	require.NoError(t, err)
	assert.Equal(t, DistributorWeekMap{10: {Start: 202401, End: 202452}}, weeks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAsInt64(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		wantErr bool
	}{
		{name: "int64", in: int64(5), want: 5},
		{name: "bytes", in: []byte("42"), want: 42},
		{name: "decimal text", in: "912.0", want: 912},
		{name: "float", in: float64(7), want: 7},
		{name: "null", in: nil, wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := asInt64(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSQLProvider_Tables(t *testing.T) {
	p := NewSQLProvider(nil, nil, Schemas{Warehouse: "WH", Project: "PR"}, nil)
	var names []string
	for _, tbl := range p.Tables() {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{
		"WH.xref_client", "PR.project", "PR.transfer_info", "WH.xref_distributor", "WH.helpdesk_distributor",
	}, names)
}

func TestSQLProvider_Probe(t *testing.T) {
	p, mock := newMock(t)
	tables := p.Tables()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM XXXXX_PRD.xref_client WHERE 1 = 0")).
		WillReturnRows(sqlmock.NewRows([]string{"client_short_name", "client_name", "client_oid"}))
	require.NoError(t, p.Probe(context.Background(), tables[0]))

	mock.ExpectQuery("transfer_info").
		WillReturnRows(sqlmock.NewRows([]string{"other"}))
	err := p.Probe(context.Background(), tables[2])
	var colErr *MissingColumnsError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, []string{"TRANSFER_INFO_OID"}, colErr.Columns)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLProvider_TableSanitizesSchema(t *testing.T) {
	p := NewSQLProvider(nil, nil, Schemas{Warehouse: "wh; DROP TABLE x", Project: "PR"}, nil)
	assert.Equal(t, "wh__DROP_TABLE_x.xref_client", p.Tables()[0].Name)
}
