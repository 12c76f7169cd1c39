package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient("test-key", WithBaseURL(server.URL))
	return client, server
}

func TestGetCompany(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/company.json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("crtfc_key"))
		assert.Equal(t, "00126380", r.URL.Query().Get("corp_code"))
		w.Write([]byte(`{
			"status": "000",
			"corp_code": "00126380",
			"corp_name": "삼성전자",
			"stock_code": "005930",
			"ceo_nm": "한종희",
			"corp_cls": "Y",
			"hm_url": "www.samsung.com"
		}`))
	})

	profile := client.GetCompany(context.Background(), "00126380")
	require.NotNil(t, profile)
	assert.Equal(t, "삼성전자", profile.Name)
	assert.Equal(t, "005930", profile.Symbol)
	assert.Equal(t, "Y", profile.CorpClass)
}

func TestGetCompany_ErrorStatusReturnsNil(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "013", "message": "조회된 데이타가 없습니다."}`))
	})

	assert.Nil(t, client.GetCompany(context.Background(), "99999999"))
}

func TestGetFinancials_AlternateAccountNames(t *testing.T) {
	// Financial-sector issuers report "수익(매출액)" instead of "매출액" and
	// parenthesised loss variants for the income lines.
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fnlttSinglAcnt.json", r.URL.Path)
		assert.Equal(t, "11011", r.URL.Query().Get("reprt_code"))
		w.Write([]byte(`{
			"status": "000",
			"list": [
				{"account_nm": "수익(매출액)", "fs_div": "CFS", "thstrm_amount": "12,345,678"},
				{"account_nm": "영업이익(손실)", "fs_div": "CFS", "thstrm_amount": "-1,000"},
				{"account_nm": "당기순이익(손실)", "fs_div": "CFS", "thstrm_amount": "2,500"},
				{"account_nm": "자산총계", "fs_div": "CFS", "thstrm_amount": "99,000"},
				{"account_nm": "부채총계", "fs_div": "CFS", "thstrm_amount": "40,000"},
				{"account_nm": "자본총계", "fs_div": "CFS", "thstrm_amount": "59,000"}
			]
		}`))
	})

	f := client.GetFinancials(context.Background(), "00126380", "2024", ReportAnnual)
	require.NotNil(t, f)
	assert.Equal(t, "2024", f.Period)
	assert.Equal(t, float64(12345678), f.Revenue)
	assert.Equal(t, float64(-1000), f.OperatingIncome)
	assert.Equal(t, float64(2500), f.NetIncome)
	assert.Equal(t, float64(59000), f.Equity)
}

func TestGetFinancials_ConsolidatedWinsOverSeparate(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// CFS rows come first upstream; the OFS row must not shadow them.
		w.Write([]byte(`{
			"status": "000",
			"list": [
				{"account_nm": "매출액", "fs_div": "CFS", "thstrm_amount": "1,000"},
				{"account_nm": "매출액", "fs_div": "OFS", "thstrm_amount": "700"}
			]
		}`))
	})

	f := client.GetFinancials(context.Background(), "00126380", "2024", ReportAnnual)
	require.NotNil(t, f)
	assert.Equal(t, float64(1000), f.Revenue)
}

func TestGetFinancials_QuarterlyLabel(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "000",
			"list": [{"account_nm": "매출액", "fs_div": "CFS", "thstrm_amount": "500"}]
		}`))
	})

	f := client.GetFinancials(context.Background(), "00126380", "2024", ReportQ3)
	require.NotNil(t, f)
	assert.Equal(t, "2024Q3", f.Period)
}

func TestGetFilings(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list.json", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("bgn_de"))
		w.Write([]byte(`{
			"status": "000",
			"list": [
				{"rcept_no": "20240315000123", "report_nm": "사업보고서 (2023.12)", "pblntf_ty": "A", "rcept_dt": "20240315"},
				{"rcept_no": "20240228000456", "report_nm": "주요사항보고서", "pblntf_ty": "", "rcept_dt": "20240228"}
			]
		}`))
	})

	filings := client.GetFilings(context.Background(), "00126380", FilingQuery{})
	require.Len(t, filings, 2)
	assert.Equal(t, "20240315000123", filings[0].ID)
	assert.Equal(t, "https://dart.fss.or.kr/dsaf001/main.do?rcpNo=20240315000123", filings[0].URL)
	assert.Equal(t, "기타", filings[1].Type)
}

func TestGetDividends(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "000",
			"list": [
				{"se": "주당 현금배당금(원)", "stock_knd": "보통주", "thstrm": "1,444"},
				{"se": "주당 현금배당금(원)", "stock_knd": "우선주", "thstrm": "1,445"},
				{"se": "현금배당수익률(%)", "stock_knd": "보통주", "thstrm": "2.0"},
				{"se": "현금배당금총액(백만원)", "stock_knd": "", "thstrm": "9,809,438"}
			]
		}`))
	})

	record := client.GetDividends(context.Background(), "00126380", "2023")
	require.NotNil(t, record)
	assert.Equal(t, float64(1444), record.DividendPerShare)
	assert.Equal(t, 2.0, record.DividendYield)
	assert.Equal(t, float64(9809438), record.TotalDividend)
}

func TestGetShareholders_DropsTotalRow(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "000",
			"list": [
				{"nm": "이재용", "relate": "본인", "trmend_posesn_stock_co": "97,414,196", "trmend_posesn_stock_qota_rt": "1.63"},
				{"nm": "계", "relate": "", "trmend_posesn_stock_co": "1,279,696,312", "trmend_posesn_stock_qota_rt": "21.43"}
			]
		}`))
	})

	holders := client.GetShareholders(context.Background(), "00126380", "2023")
	require.Len(t, holders, 1)
	assert.Equal(t, "이재용", holders[0].Name)
	assert.Equal(t, int64(97414196), holders[0].ShareCount)
	assert.Equal(t, 1.63, holders[0].SharePercent)
}

func corpCodeZip(t *testing.T, xmlBody string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("CORPCODE.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(xmlBody))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDownloadCorpCodes(t *testing.T) {
	archive := corpCodeZip(t, `<?xml version="1.0" encoding="UTF-8"?>
<result>
	<list><corp_code>00126380</corp_code><corp_name>삼성전자</corp_name><stock_code>005930</stock_code></list>
	<list><corp_code>00164742</corp_code><corp_name>현대자동차</corp_name><stock_code>005380</stock_code></list>
	<list><corp_code>00999999</corp_code><corp_name>비상장회사</corp_name><stock_code> </stock_code></list>
</result>`)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/corpCode.xml", r.URL.Path)
		w.Write(archive)
	})

	codes, err := client.DownloadCorpCodes(context.Background())
	require.NoError(t, err)
	assert.Len(t, codes, 2)
	assert.Equal(t, "00126380", codes["005930"])
	assert.Equal(t, "00164742", codes["005380"])
}

func TestDownloadCorpCodes_RejectedKeyReturnsError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><result><status>020</status><message>등록되지 않은 인증키</message></result>`))
	})

	_, err := client.DownloadCorpCodes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestDownloadCorpCodes_EmptyArchiveReturnsError(t *testing.T) {
	archive := corpCodeZip(t, `<result></result>`)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})

	_, err := client.DownloadCorpCodes(context.Background())
	require.Error(t, err)
}
