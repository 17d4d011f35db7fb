// Package files manages the browser download directory.
//
// Manager clears stale exports before a download is triggered, reports
// whether an export has fully landed (the file exists and its partial
// marker does not) and removes artifacts once they are consumed.
//
//	m := files.NewManager(paths.DownloadsDir, ".crdownload", logger)
//	m.ClearStale("contracts-flow*.xlsx")
//	if m.IsReady("contracts-flow.xlsx") {
//	    // reshape
//	}
package files
