// Package services implements the business logic layer of the ingest tool.
//
// IngestService ties the pieces together for one unit of work, identified by
// (year, region, product, subtype):
//
//	1. Validate the labels
//	2. Skip the unit when the checkpoint registry already records it
//	3. Split the raw table into wholesale and retail records
//	4. Merge both series into the yearly workbooks, then checkpoint
//
// Every unit runs inside an OpenTelemetry span and updates the ingest
// counters. Services receive their dependencies through functional options:
//
//	svc, err := services.NewIngestService(paths,
//	    services.WithLogger(logger),
//	    services.WithTracer(providers.Tracer),
//	    services.WithMetrics(metrics),
//	)
//	result, err := svc.Ingest(ctx, table, labels, false)
//
// The service is not safe for concurrent use against the same output
// directory; the registry and workbooks are rewritten whole.
package services
