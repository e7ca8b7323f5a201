/*

Package caseloader loads OSHA Injury Tracking Application (ITA) case detail
exports into a remote table such as a Supabase (PostgREST) table.

A run is one linear pass over a single file:

	load      read the CSV (ISO-8859-1) or .xls export, every field as text,
	          empty fields as NULL
	normalize lower-case column names, apply ColumnRenames, reparse
	          created_timestamp ("05JAN24:14:30:00" -> "2024-01-05 14:30:00")
	          and strip a trailing ".00" from every value
	split     cut the records into chunks of Config.BatchSize
	upload    insert chunks one at a time, pausing Config.Throttle after each

A chunk that fails to insert is logged and skipped; the run goes on with the
next chunk. Nothing is retried and earlier chunks are not rolled back.

Getting started

	cfg, err := caseloader.LoadConfig()
	if err != nil {
		return err
	}

	loader, err := caseloader.New(ctx, cfg, caseloader.WithPrettyLogging())
	if err != nil {
		return err
	}
	defer loader.Close()

	summary, err := loader.Run(ctx)

The store is chosen by Config.StoreURL: an http(s) URL is a Supabase project,
postgres:// is a direct database connection and bigquery://project/dataset
streams into BigQuery.

Cloud Functions

Loader.HandleEvent loads the object referenced by a Cloud Storage event, so
the same pipeline can run whenever a new export is uploaded to a bucket.

	func LoadCases(ctx context.Context, e caseloader.Event) error {
		return loader.HandleEvent(ctx, e)
	}

*/
package caseloader
