package testutil

// Canned IEX responses shared by package tests.
const (
	QuoteIBM = `{
		"symbol": "IBM",
		"companyName": "International Business Machines Corporation",
		"primaryExchange": "New York Stock Exchange",
		"sector": "Technology",
		"calculationPrice": "close",
		"open": 154,
		"openTime": 1506605400394,
		"close": 153.28,
		"closeTime": 0,
		"latestPrice": 158.73,
		"latestUpdate": 1505779200000,
		"latestVolume": 20567140,
		"marketCap": 3000000000,
		"peRatio": 16.86,
		"week52High": 159.65,
		"week52Low": 93.63
	}`

	CompanyIBM = `{
		"symbol": "IBM",
		"companyName": "International Business Machines Corporation",
		"exchange": "New York Stock Exchange",
		"industry": "Application Software",
		"website": "http://www.ibm.com",
		"CEO": "Virginia M. Rometty",
		"issueType": "cs",
		"sector": "Technology"
	}`

	StatsIBM = `{
		"companyName": "International Business Machines Corporation",
		"marketcap": 141953863000,
		"beta": 1.04,
		"week52high": 171.13,
		"dividendRate": 6,
		"dividendYield": 3.82,
		"sharesOutstanding": 926208000,
		"EBITDA": 17876000000
	}`

	DividendsIBM1y = `[
		{"exDate":"2018-02-08","paymentDate":"2018-03-10","recordDate":"2018-02-09","declaredDate":"2018-01-30","amount":1.5,"type":"Dividend income","qualified":"Q"},
		{"exDate":"2017-11-09","paymentDate":"2017-12-09","recordDate":"2017-11-10","declaredDate":"2017-10-31","amount":1.5,"type":"Dividend income","qualified":"Q"},
		{"exDate":"2017-08-08","paymentDate":"2017-09-09","recordDate":"2017-08-10","declaredDate":"2017-07-25","amount":1.5,"type":"Dividend income","qualified":"Q"},
		{"exDate":"2017-05-08","paymentDate":"2017-06-10","recordDate":"2017-05-10","declaredDate":"2017-04-25","amount":1.5,"type":"Dividend income","qualified":"Q"}
	]`

	DividendsSO1y = `[
		{"exDate":"2018-02-16","paymentDate":"2018-03-06","recordDate":"2018-02-20","declaredDate":"2018-01-16","amount":0.58,"type":"Dividend income","qualified":"Q"},
		{"exDate":"2017-11-17","paymentDate":"2017-12-06","recordDate":"2017-11-20","declaredDate":"2017-10-16","amount":0.58,"type":"Dividend income","qualified":"Q"},
		{"exDate":"2017-08-17","paymentDate":"2017-09-06","recordDate":"2017-08-21","declaredDate":"2017-07-17","amount":0.58,"type":"Dividend income","qualified":"Q"},
		{"exDate":"2017-05-18","paymentDate":"2017-06-06","recordDate":"2017-05-22","declaredDate":"2017-04-17","amount":0.56,"type":"Dividend income","qualified":"Q"}
	]`

	EarningsIBM = `{
		"symbol": "IBM",
		"earnings": [
			{"actualEPS":5.18,"consensusEPS":5.17,"estimatedEPS":5.17,"announceTime":"AMC","numberOfEstimates":12,"EPSSurpriseDollar":0.01,"EPSReportDate":"2018-01-18","fiscalPeriod":"Q4 2017","fiscalEndDate":"2017-12-31"},
			{"actualEPS":3.3,"consensusEPS":3.28,"estimatedEPS":3.28,"announceTime":"AMC","numberOfEstimates":12,"EPSSurpriseDollar":0.02,"EPSReportDate":"2017-10-17","fiscalPeriod":"Q3 2017","fiscalEndDate":"2017-09-30"}
		]
	}`

	ChartSO1y = `[
		{"date":"2017-08-31","open":47.9,"high":48.3,"low":47.6,"close":48.01,"volume":4200000},
		{"date":"2017-09-01","open":48.0,"high":48.1,"low":47.1,"close":47.32,"volume":3900000},
		{"date":"2017-09-05","open":47.4,"high":47.9,"low":47.2,"close":47.8,"volume":4100000}
	]`
)
