// Package query builds NBA query specifications.
//
// A Condition is a predicate on one document field, optionally extended into a
// tree with nested AND/OR conditions. A Spec collects top-level conditions with
// paging, sorting and projection; a GroupSpec adds the criteria of the
// groupByScientificName aggregation.
//
//	c := query.Must(query.NewCondition("acceptedName.genusOrMonomial", query.EqualsIC, "larus"))
//	_ = c.AddOr("acceptedName.specificEpithet", query.Like, "fus")
//
//	spec := query.NewSpec()
//	_ = spec.AddCondition(c)
//	_ = spec.SetSize(25)
//	qs, _ := spec.Serialize(true)
//
// Invalid input is rejected when it is set, with an error matching
// domain.ErrValidation (re-exported as bioportal.ErrValidation).
package query
