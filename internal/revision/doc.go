// Package revision holds the revision-scheduling core: measuring how long a
// study session lasted, predicting how many days until a topic should be
// revised, and deriving the topic progress writes a session produces.
//
// Nothing in this package touches the database. Callers load the rows, call
// PlanSession, and persist the returned Writes inside one transaction.
package revision
