// Package bioportal provides a Go client for the Netherlands Biodiversity
// API (NBA) of Naturalis.
//
// Queries are built with package query and dispatched by a Client against
// one or more NBA services. Every service is a separate HTTP channel; all
// channels of a call run concurrently and each gets its own timeout, so one
// slow or failing service never hides the others.
//
// # Querying
//
//	c, _ := bioportal.New(bioportal.WithTimeout(10 * time.Second))
//
//	cond := query.Must(query.NewCondition("gatheringEvent.country", query.Equals, "Netherlands"))
//	spec := query.NewSpec()
//	_ = spec.AddCondition(cond)
//
//	_ = c.Select(bioportal.ServiceSpecimen, bioportal.ServiceMultimedia)
//	_ = c.AttachSpec(spec)
//	res, _ := c.Query(ctx)
//	for _, label := range res.Labels() {
//	    p, _ := res.Payload(label)
//	    fmt.Println(label, len(p), res.Errors()[label])
//	}
//
// # Batches
//
//	res, err := c.Specimen().BatchQuery(ctx, map[string]query.Specifier{
//	    "larus":  larusSpec,
//	    "passer": passerSpec,
//	})
//	var ce *bioportal.CapacityError
//	if errors.As(err, &ce) {
//	    // too many specs, nothing was sent
//	}
//
// # Darwin Core Archives
//
// DwCA exports are written to the directory set with WithDownloadDir:
//
//	path, _ := c.Specimen().DwCADataSet(ctx, "aves")
package bioportal
