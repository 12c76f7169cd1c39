package datagokr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kofin/finboard/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-key", WithBaseURL(server.URL))
}

func TestGetListedInstruments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/GetKrxListedInfoService/getItemInfo", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("serviceKey"))
		assert.Equal(t, "20240315", r.URL.Query().Get("basDt"))
		assert.Equal(t, "json", r.URL.Query().Get("resultType"))
		w.Write([]byte(`{"response": {"body": {"totalCount": 4, "items": {"item": [
			{"srtnCd": "A005930", "itmsNm": "삼성전자", "mrktCtg": "KOSPI"},
			{"srtnCd": "A035720", "itmsNm": "카카오", "mrktCtg": "KOSPI"},
			{"srtnCd": "A005930", "itmsNm": "삼성전자", "mrktCtg": "KOSPI"},
			{"srtnCd": "A123456", "itmsNm": "코넥스종목", "mrktCtg": "KONEX"}
		]}}}}`))
	})

	instruments, err := client.GetListedInstruments(context.Background(), "20240315")
	require.NoError(t, err)
	// Duplicate and KONEX rows are dropped, "A" prefix stripped.
	require.Len(t, instruments, 2)
	assert.Equal(t, "005930", instruments[0].Symbol)
	assert.Equal(t, "삼성전자", instruments[0].Name)
	assert.Equal(t, models.MarketKOSPI, instruments[0].Market)
}

func TestGetListedInstruments_EmptyDayReturnsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": {"body": {"totalCount": 0, "items": {"item": []}}}}`))
	})

	_, err := client.GetListedInstruments(context.Background(), "20240316")
	require.Error(t, err)
}

func TestGetPriceRanking_SortsByMetric(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/GetStockSecuritiesInfoService/getStockPriceInfo", r.URL.Path)
		assert.Equal(t, "KOSDAQ", r.URL.Query().Get("mrktCtg"))
		assert.Equal(t, "2", r.URL.Query().Get("pageNo"))
		w.Write([]byte(`{"response": {"body": {"totalCount": 1700, "items": {"item": [
			{"srtnCd": "035720", "itmsNm": "카카오", "mrktCtg": "KOSDAQ", "basDt": "20240315",
			 "clpr": "48,000", "vs": "500", "fltRt": "1.05", "trqu": "1000", "trPrc": "48000000"},
			{"srtnCd": "247540", "itmsNm": "에코프로비엠", "mrktCtg": "KOSDAQ", "basDt": "20240315",
			 "clpr": "250,000", "vs": "-3000", "fltRt": "-1.19", "trqu": "5000", "trPrc": "1250000000"}
		]}}}}`))
	})

	rows, total := client.GetPriceRanking(context.Background(), "20240315", models.MarketKOSDAQ, models.RankByVolume, 2, 20)
	require.Len(t, rows, 2)
	assert.Equal(t, 1700, total)
	assert.Equal(t, "247540", rows[0].Symbol) // higher volume first
	assert.Equal(t, 48000.0, rows[1].Price)   // comma-formatted close parsed
}

func TestGetPriceRanking_ServerErrorReturnsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rows, total := client.GetPriceRanking(context.Background(), "20240315", models.MarketKOSPI, models.RankByVolume, 1, 20)
	assert.Nil(t, rows)
	assert.Zero(t, total)
}

func TestGetShortSelling(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/GetShortSellingInfoService/getShortSellingInfo", r.URL.Path)
		w.Write([]byte(`{"response": {"body": {"totalCount": 3, "items": {"item": [
			{"srtnCd": "005930", "itmsNm": "삼성전자", "mrktCtg": "KOSPI", "basDt": "20240315",
			 "cvsrtnDlQty": "100", "trdQty": "10000", "cvsrtnDlAmt": "7100000"},
			{"srtnCd": "000660", "itmsNm": "SK하이닉스", "mrktCtg": "KOSPI", "basDt": "20240315",
			 "cvsrtnDlQty": "500", "trdQty": "10000", "cvsrtnDlAmt": "9000000"},
			{"srtnCd": "035420", "itmsNm": "NAVER", "mrktCtg": "KOSPI", "basDt": "20240315",
			 "cvsrtnDlQty": "0", "trdQty": "8000", "cvsrtnDlAmt": "0"}
		]}}}}`))
	})

	rows := client.GetShortSelling(context.Background(), "20240315", 20)
	// Zero-short row dropped, remainder sorted by ratio descending.
	require.Len(t, rows, 2)
	assert.Equal(t, "000660", rows[0].Symbol)
	assert.Equal(t, 5.0, rows[0].ShortRatio)
	assert.Equal(t, 1.0, rows[1].ShortRatio)
}

func TestGetShortSelling_TruncatesToLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": {"body": {"totalCount": 3, "items": {"item": [
			{"srtnCd": "1", "itmsNm": "a", "mrktCtg": "KOSPI", "cvsrtnDlQty": "1", "trdQty": "100"},
			{"srtnCd": "2", "itmsNm": "b", "mrktCtg": "KOSPI", "cvsrtnDlQty": "2", "trdQty": "100"},
			{"srtnCd": "3", "itmsNm": "c", "mrktCtg": "KOSPI", "cvsrtnDlQty": "3", "trdQty": "100"}
		]}}}}`))
	})

	rows := client.GetShortSelling(context.Background(), "20240315", 2)
	require.Len(t, rows, 2)
	assert.Equal(t, "3", rows[0].Symbol)
}
