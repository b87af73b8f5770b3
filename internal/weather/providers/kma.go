package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/kma-forecast/internal/forecast"
)

// DefaultKMABaseURL is the village forecast service of the public data portal.
const DefaultKMABaseURL = "http://apis.data.go.kr/1360000/VilageFcstInfoService_2.0"

// resultNoData is returned by the API when an issue has not been published yet.
const resultNoData = "03"

// APIError is a non-success result code inside an HTTP 200 response.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kma api error %s: %s", e.Code, e.Message)
}

var kmaEndpoints = map[forecast.Product]struct {
	path string
	rows int
}{
	forecast.Nowcast:       {"getUltraSrtNcst", 10},
	forecast.UltraForecast: {"getUltraSrtFcst", 60},
	forecast.ShortTerm:     {"getVilageFcst", 1000},
}

// KMAProvider fetches raw records from the Korea Meteorological Administration open API.
type KMAProvider struct {
	name       string
	serviceKey string
	baseURL    string
	upstream   *upstream
}

// NewKMAProvider builds the client. serviceKey is the decoded portal key.
func NewKMAProvider(client *http.Client, serviceKey, baseURL string, backoff BackoffConfig) *KMAProvider {
	if baseURL == "" {
		baseURL = DefaultKMABaseURL
	}
	return &KMAProvider{
		name:       "kma",
		serviceKey: serviceKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		upstream:   newUpstream("kma", client, backoff),
	}
}

func (p *KMAProvider) Name() string {
	return p.name
}

type kmaItem struct {
	BaseDate  string      `json:"baseDate"`
	BaseTime  string      `json:"baseTime"`
	Category  string      `json:"category"`
	FcstDate  string      `json:"fcstDate"`
	FcstTime  string      `json:"fcstTime"`
	FcstValue string      `json:"fcstValue"`
	ObsrValue json.Number `json:"obsrValue"`
	Nx        int         `json:"nx"`
	Ny        int         `json:"ny"`
}

type kmaResponse struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			DataType string `json:"dataType"`
			Items    struct {
				Item []kmaItem `json:"item"`
			} `json:"items"`
			PageNo     int `json:"pageNo"`
			NumOfRows  int `json:"numOfRows"`
			TotalCount int `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// Fetch downloads one issue for one grid cell. An issue the API reports as not
// yet published yields no records rather than an error.
func (p *KMAProvider) Fetch(ctx context.Context, issue forecast.IssueDescriptor, cell forecast.GridCell) ([]forecast.ForecastRecord, error) {
	if p.serviceKey == "" {
		return nil, fmt.Errorf("kma service key is not configured")
	}
	endpoint, ok := kmaEndpoints[issue.Product]
	if !ok {
		return nil, fmt.Errorf("kma: unsupported product %s", issue.Product)
	}

	values := url.Values{}
	values.Set("serviceKey", p.serviceKey)
	values.Set("pageNo", "1")
	values.Set("numOfRows", strconv.Itoa(endpoint.rows))
	values.Set("dataType", "JSON")
	values.Set("base_date", issue.Date)
	values.Set("base_time", issue.Time)
	values.Set("nx", strconv.Itoa(cell.NX))
	values.Set("ny", strconv.Itoa(cell.NY))

	resp, err := p.upstream.get(ctx, fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint.path, values.Encode()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload kmaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode kma response: %w", err)
	}

	header := payload.Response.Header
	switch header.ResultCode {
	case "00":
	case resultNoData:
		return nil, nil
	default:
		return nil, &APIError{Code: header.ResultCode, Message: header.ResultMsg}
	}

	items := payload.Response.Body.Items.Item
	records := make([]forecast.ForecastRecord, 0, len(items))
	for _, it := range items {
		records = append(records, toRecord(issue.Product, it))
	}
	return records, nil
}

// toRecord maps an item onto the engine's record. Observations carry the
// issue stamp as their time and obsrValue as their value.
func toRecord(product forecast.Product, it kmaItem) forecast.ForecastRecord {
	if product == forecast.Nowcast {
		return forecast.ForecastRecord{
			Date:     it.BaseDate,
			Time:     it.BaseTime,
			Category: forecast.Category(it.Category),
			Value:    it.ObsrValue.String(),
		}
	}
	return forecast.ForecastRecord{
		Date:     it.FcstDate,
		Time:     it.FcstTime,
		Category: forecast.Category(it.Category),
		Value:    it.FcstValue,
	}
}
