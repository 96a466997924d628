// Package cytomine provides a typed Go client for the Cytomine REST API.
//
// Cytomine is a web platform for collaborative analysis of very large
// images, built around projects, whole-slide images and geometric
// annotations. This package covers the client side of that API: signed
// HTTP transport, resource models mirroring the server-side entities,
// filtered collections and parallel downloads of annotation crops.
//
// # Connecting
//
// A client is built from a host and an API key pair. Every request is
// signed with an HMAC-SHA1 token derived from the private key, so no
// session state is kept.
//
//	client, err := cytomine.New("https://demo.cytomine.local", publicKey, privateKey,
//	    cytomine.WithLogger(logger),
//	    cytomine.WithRequestRate(10),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := client.WaitReady(ctx, 2*time.Minute, time.Second); err != nil {
//	    return err
//	}
//	user, err := client.FetchCurrentUser(ctx)
//
// # Resources
//
// Server entities are mirrored by models carrying a dynamic attribute set:
// the attributes hold exactly what the service sent, and the verbs Fetch,
// Save, Update and Delete exchange them with the server.
//
//	project := models.NewProject("demo", ontologyID)
//	if err := project.Save(ctx, client); err != nil {
//	    return err
//	}
//
//	annotation := models.NewAnnotation()
//	annotation.SetLocation("POINT (10 10)")
//	annotation.SetImageID(imageID)
//	err = annotation.Save(ctx, client)
//
// # Collections
//
// Collections fetch entity listings, constrained by the filters the
// service accepts for each kind and paged with Max and Offset.
//
//	annotations := models.NewAnnotationCollection()
//	annotations.Project = models.Int(projectID)
//	annotations.ShowWKT = models.Bool(true)
//	if err := annotations.Fetch(ctx, client); err != nil {
//	    return err
//	}
//
// # Bulk downloads
//
// Annotation crops are downloaded in parallel through a bounded worker
// pool. Failures are collected per annotation instead of aborting the
// batch.
//
//	report := annotations.DumpCrops(ctx, client,
//	    filepath.Join(dir, "{project}", "{id}.jpg"),
//	    8, models.WithMask())
//	if report.FailureCount() > 0 {
//	    log.Printf("%d crops failed", report.FailureCount())
//	}
//
// # Errors
//
// Failures carry the operation and, when relevant, the path involved.
// Sentinel errors in the errors package classify the common conditions,
// and HTTP failures keep their status code:
//
//	err := annotation.Fetch(ctx, client)
//	var httpErr *errors.HTTPError
//	if stderrors.As(err, &httpErr) && httpErr.StatusCode == 404 {
//	    // annotation is gone
//	}
package cytomine
