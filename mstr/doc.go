// Package mstr provides a client for the MicroStrategy Web Task API.
//
// Every operation is a GET against the TaskProc endpoint with its arguments
// encoded as query parameters. Responses are requested as XML and parsed
// into flat lists of value objects: folder entries, attribute elements,
// attributes, metrics and report rows.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := mstr.Connect(ctx,
//		"https://bi.example.com/MicroStrategy/asp/TaskProc.aspx",
//		mstr.Credentials{
//			ProjectSource: "prod-iserver",
//			ProjectName:   "Sales",
//			Username:      "reporter",
//			Password:      "secret",
//		},
//		logger,
//		mstr.WithTimeout(time.Minute),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	report := client.Report("5E7B1C2A11D5C0E1C000E7AB3D6C4F4F")
//	if err := report.Execute(ctx, mstr.DefaultExecuteOptions()); err != nil {
//		log.Fatal(err)
//	}
//	rows, _ := report.Values()
//
// # Identity
//
// Attributes and metrics are interned per client: parsing the same id twice
// yields the same pointer, carrying the name seen first.
//
// # Prompts
//
// Value prompt answers are sent in prompt order. Element prompt answers are
// given as a slice of ElementPromptAnswer so the encoded order is stable.
package mstr
