// Package http provides HTTP handlers and middleware for the facility
// coordinator API.
//
// The router exposes the following endpoints:
//   - GET /facilities?q=: catalog search by name or location, ignoring case
//     and accents. GET /facilities/{id} returns one facility.
//   - GET /coordinators/unassigned: coordinators without a stored assignment.
//   - GET /coordinators/{id}/facilities?q=&tab=&status=: the facility cards of a
//     coordinator with status, last visit and next visit. tab is one of
//     todas, hoy or atencion.
//   - GET /grid/slots: selectable boundaries, calendar cells and weekdays.
//   - POST /assignments, GET /assignments/{id}, DELETE /assignments/{id}:
//     open, read and discard an assignment form session.
//   - PUT /assignments/{id}/coordinator {"coordinator_id"}: select the
//     coordinator; 0 clears the selection.
//   - POST and DELETE /assignments/{id}/facilities/{facilityID}: toggle a
//     facility. PUT /assignments/{id}/focus {"facility_id"} changes the
//     facility being edited.
//   - POST /assignments/{id}/facilities/{facilityID}/entries {"day","start","end"}
//     and DELETE .../entries/{entryID}: manage weekly entries. Rejected entries
//     answer 422 with the conflicting entry when there is one.
//   - GET /assignments/{id}/grid: the derived weekly calendar.
//   - POST /assignments/{id}/submit: validates and stores the assignment.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
