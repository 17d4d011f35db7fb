// Package crawler traverses the funding agency and supplier facets of the
// contracts-flow report and collects one crosstab export per combination.
//
// The Enumerator is a small state machine (selecting, recovering, exhausted,
// done) that yields each agency once. The CompanySelector activates one
// supplier at a time, the Synchronizer waits for the export to land in the
// download directory, and the Pipeline ties them together with the skip
// policy:
//
//	p := crawler.NewPipeline(dash, enumerator, companies, sync, reshaper, fm, opts)
//	table, err := p.Run(ctx)
//
// The dashboard itself is behind the Dashboard and Facet interfaces.
package crawler
