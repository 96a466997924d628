// Package models implements the resource layer of the Cytomine API: every
// resource kind is a thin type over a shared dynamic attribute model, with
// generic fetch, save, update and delete verbs dispatched through a small
// transport interface the root package client satisfies.
//
// Attributes mirror the service payloads. Populating an instance applies
// the service naming rules once ("id_x" becomes "x", "class" and "uri"
// move aside, internal keys are dropped), and the transport projection
// reverses them, so instances round-trip through the API without bespoke
// structs per kind.
//
// Identity is polymorphic: most kinds are addressed by a surrogate id,
// relations by the ids of the resources they join, and metadata kinds
// under their owner's domain prefix. Verbs pick the creation or instance
// path from the lifecycle state, and every identifying attribute is
// checked before a request is issued.
//
// Collections list resources with per-kind filter allow-lists, a
// max/offset window and service-reported totals; annotation collections
// can bulk-download crops through the transfer package.
//
// Example usage:
//
//	annotations := models.NewAnnotationCollection()
//	annotations.Project = models.Int(projectID)
//	annotations.ShowWKT = models.Bool(true)
//	if err := annotations.Fetch(ctx, client); err != nil {
//	    return err
//	}
//	report := annotations.DumpCrops(ctx, client, "crops/{project}/{id}.png", 0)
//	if err := report.Err(); err != nil {
//	    log.Printf("%d crops missing", report.FailureCount())
//	}
package models
