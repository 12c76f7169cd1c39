package reference

import "github.com/kofin/finboard/internal/models"

// fallbackUniverse is the built-in listing served when the registry has
// never been reachable. It covers the large caps users actually search for,
// so the search box keeps working through a full registry outage.
var fallbackUniverse = []models.Instrument{
	{Symbol: "005930", Name: "삼성전자", Market: models.MarketKOSPI},
	{Symbol: "000660", Name: "SK하이닉스", Market: models.MarketKOSPI},
	{Symbol: "373220", Name: "LG에너지솔루션", Market: models.MarketKOSPI},
	{Symbol: "207940", Name: "삼성바이오로직스", Market: models.MarketKOSPI},
	{Symbol: "005380", Name: "현대차", Market: models.MarketKOSPI},
	{Symbol: "000270", Name: "기아", Market: models.MarketKOSPI},
	{Symbol: "068270", Name: "셀트리온", Market: models.MarketKOSPI},
	{Symbol: "035420", Name: "NAVER", Market: models.MarketKOSPI},
	{Symbol: "035720", Name: "카카오", Market: models.MarketKOSPI},
	{Symbol: "051910", Name: "LG화학", Market: models.MarketKOSPI},
	{Symbol: "006400", Name: "삼성SDI", Market: models.MarketKOSPI},
	{Symbol: "005490", Name: "POSCO홀딩스", Market: models.MarketKOSPI},
	{Symbol: "105560", Name: "KB금융", Market: models.MarketKOSPI},
	{Symbol: "055550", Name: "신한지주", Market: models.MarketKOSPI},
	{Symbol: "012330", Name: "현대모비스", Market: models.MarketKOSPI},
	{Symbol: "028260", Name: "삼성물산", Market: models.MarketKOSPI},
	{Symbol: "066570", Name: "LG전자", Market: models.MarketKOSPI},
	{Symbol: "096770", Name: "SK이노베이션", Market: models.MarketKOSPI},
	{Symbol: "247540", Name: "에코프로비엠", Market: models.MarketKOSDAQ},
	{Symbol: "086520", Name: "에코프로", Market: models.MarketKOSDAQ},
	{Symbol: "091990", Name: "셀트리온헬스케어", Market: models.MarketKOSDAQ},
	{Symbol: "022100", Name: "포스코DX", Market: models.MarketKOSDAQ},
	{Symbol: "035900", Name: "JYP Ent.", Market: models.MarketKOSDAQ},
	{Symbol: "041510", Name: "에스엠", Market: models.MarketKOSDAQ},
}
