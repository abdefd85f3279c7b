// Package core implements bulk CSV imports for the scheduling backend.
//
// An import job is created pending, then [Service.ProcessImport] runs it:
//
//  1. the job moves to processing
//  2. content is decoded (BOM, UTF-16, Windows-1252, NFC) and split into a
//     header row and data rows
//  3. every data row is handed, in file order, to the processor registered
//     for the job's kind
//  4. failed rows become [RowError] records and the job is completed with
//     its counters
//
// A job is marked failed only when nothing could be processed: empty or
// unreadable content, or content over the size limit.
//
// # Kinds
//
// Each kind (users, subjects, groups, schedules) registers a
// [KindDefinition] at init time, see package kinds. The definition is looked
// up once per job. Processors reach the target entities through [Directory]
// and create login identities through [IdentityProvider]; a user row uses
// [WithIdentity] so the identity is deleted again if its profile cannot be
// written.
//
// # Errors
//
// Row failures are typed: [ValidationError], [MissingFieldsError],
// [ReferenceError], [DuplicateError] and [CompensationError]. [MapError]
// turns any error into a coded [UserMessage] for API responses.
package core
