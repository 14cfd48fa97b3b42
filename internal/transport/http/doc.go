// Package http implements the HTTP handlers of the dashboard API. Handlers are
// thin: they parse the request, call the service layer and render the result.
//
// # Routes
//
// DatasetHandler.Routes is mounted at /api/datasets:
//
//	GET    /                       active datasets
//	POST   /sync                   sync every kind from Google Sheets
//	POST   /{kind}                 multipart upload, field "file"
//	GET    /{kind}                 dataset metadata
//	DELETE /{kind}                 drop the dataset
//	POST   /{kind}/sync            sync one kind from Google Sheets
//	GET    /{kind}/records         filtered records
//	GET    /{kind}/export.csv      filtered records as CSV
//	GET    /{kind}/overview        dashboard summary
//	GET    /{kind}/trend           monthly trend
//	GET    /{kind}/repeats?limit=  repeat failures
//	GET    /{kind}/issues?top=     issue ranking
//	GET    /{kind}/layers          tech layer breakdown
//	GET    /{kind}/calibration     after-sales calibration variance
//
// {kind} is fuel or after-sales. The views accept search, start and end
// (YYYY-MM-DD) query parameters.
//
// # Responses
//
// Successful responses are wrapped as {"status": "success", "data": ...}.
// Errors are RFC 7807 problem documents written by errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/empty",
//	    "title": "No Records Found",
//	    "status": 422,
//	    "detail": "No valid data found in the file.",
//	    "instance": "/api/datasets/fuel"
//	}
package http
