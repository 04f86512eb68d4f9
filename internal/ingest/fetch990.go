// File path: internal/ingest/fetch990.go
package ingest

import (
	"context"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/causewaylabs/causeway/internal/corpus"
)

const (
	irs990BaseURL = "https://apps.irs.gov/pub/epostcard/990/xml"
	fetchTimeout  = 30 * time.Second
)

// The yearly index has no geography columns, so regional filtering matches
// these keywords against filer names.
var houstonKeywords = []string{
	"houston", "harris county", "galveston", "montgomery county",
	"fort bend", "brazoria", "chambers", "liberty county",
}

// Filing is one row of the yearly IRS e-file index.
type Filing struct {
	EIN      string
	Name     string
	ObjectID string
	NTEECode string
}

// Fetcher990 downloads the IRS index and individual filings, throttled to
// two requests per second.
type Fetcher990 struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

func NewFetcher990(client *http.Client, baseURL string) *Fetcher990 {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	if baseURL == "" {
		baseURL = irs990BaseURL
	}
	return &Fetcher990{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
}

// Index downloads and parses the filing index for a year.
func (f *Fetcher990) Index(ctx context.Context, year int) ([]Filing, error) {
	data, err := f.get(ctx, fmt.Sprintf("%s/%d/index_%d.csv", f.baseURL, year, year))
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	nameIdx, nameOK := cols["TAXPAYER_NAME"]
	objectIdx, objectOK := cols["OBJECT_ID"]
	if !nameOK || !objectOK {
		return nil, fmt.Errorf("index missing TAXPAYER_NAME or OBJECT_ID column")
	}
	einIdx, einOK := cols["EIN"]
	if !einOK {
		einIdx = -1
	}
	nteeIdx, nteeOK := cols["NTEE_CD"]

	var filings []Filing
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read index row: %w", err)
		}
		filing := Filing{
			EIN:      field(row, einIdx),
			Name:     field(row, nameIdx),
			ObjectID: field(row, objectIdx),
		}
		if nteeOK {
			filing.NTEECode = field(row, nteeIdx)
		}
		if filing.ObjectID == "" {
			continue
		}
		filings = append(filings, filing)
	}
	return filings, nil
}

// FilterFilings keeps filings whose name contains any keyword,
// case-insensitively.
func FilterFilings(filings []Filing, keywords []string) []Filing {
	if len(keywords) == 0 {
		return filings
	}
	matched := make([]Filing, 0, len(filings))
	for _, filing := range filings {
		lowered := strings.ToLower(filing.Name)
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				matched = append(matched, filing)
				break
			}
		}
	}
	return matched
}

// Filings downloads and parses the given filings. Individual failures are
// logged and skipped; only cancellation aborts the pass.
func (f *Fetcher990) Filings(ctx context.Context, year int, filings []Filing, log func(level, format string, args ...interface{})) ([]corpus.Organization, error) {
	if log == nil {
		log = func(string, string, ...interface{}) {}
	}
	orgs := make([]corpus.Organization, 0, len(filings))
	for _, filing := range filings {
		data, err := f.get(ctx, fmt.Sprintf("%s/%d/%s_public.xml", f.baseURL, year, filing.ObjectID))
		if err != nil {
			if ctx.Err() != nil {
				return orgs, ctx.Err()
			}
			log("warn", "Fetch filing %s failed: %v", filing.ObjectID, err)
			continue
		}
		org, err := parseFiling(data, filing)
		if err != nil {
			log("warn", "%v", err)
			continue
		}
		orgs = append(orgs, org)
		if len(orgs)%10 == 0 {
			log("info", "Processed %d filings", len(orgs))
		}
	}
	return orgs, nil
}

func (f *Fetcher990) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// return990 maps the slice of an e-file Form 990 this system keeps. The IRS
// schema namespaces everything under http://www.irs.gov/efile; matching by
// local name is sufficient.
type return990 struct {
	Filer struct {
		EIN          string `xml:"EIN"`
		BusinessName struct {
			Line1 string `xml:"BusinessNameLine1Txt"`
		} `xml:"BusinessName"`
		USAddress struct {
			City  string `xml:"CityNm"`
			State string `xml:"StateAbbreviationCd"`
		} `xml:"USAddress"`
	} `xml:"ReturnHeader>Filer"`
	Body struct {
		Mission    string   `xml:"MissionDesc"`
		Activities string   `xml:"ActivityOrMissionDesc"`
		Revenue    *float64 `xml:"TotalRevenueAmt"`
		Expenses   *float64 `xml:"TotalExpensesAmt"`
		NetAssets  *float64 `xml:"NetAssetsOrFundBalancesEOYAmt"`
		Website    string   `xml:"WebsiteAddressTxt"`
	} `xml:"ReturnData>IRS990"`
}

func parseFiling(data []byte, filing Filing) (corpus.Organization, error) {
	var ret return990
	if err := xml.Unmarshal(data, &ret); err != nil {
		return corpus.Organization{}, fmt.Errorf("parse filing %s: %w", filing.ObjectID, err)
	}
	org := corpus.Organization{
		EIN:             firstNonEmpty(ret.Filer.EIN, filing.EIN),
		Name:            firstNonEmpty(ret.Filer.BusinessName.Line1, filing.Name),
		NTEECode:        filing.NTEECode,
		NTEEDescription: NTEEDescription(filing.NTEECode),
		Mission:         strings.TrimSpace(ret.Body.Mission),
		Activities:      strings.TrimSpace(ret.Body.Activities),
		City:            strings.TrimSpace(ret.Filer.USAddress.City),
		State:           strings.TrimSpace(ret.Filer.USAddress.State),
		Revenue:         ret.Body.Revenue,
		Expenses:        ret.Body.Expenses,
		NetAssets:       ret.Body.NetAssets,
		Website:         strings.TrimSpace(ret.Body.Website),
	}
	return org, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
