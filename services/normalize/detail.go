package normalize

import (
	"errors"
	"fmt"

	"github.com/sahilchouksey/gaokao-ingest/model"
)

// ErrMissingSchoolID is returned for a profile without a school_id.
var ErrMissingSchoolID = errors.New("institution detail has no school_id")

// Child collection fields of an institution profile.
const (
	fieldMasterList    = "master_arr"
	fieldDoctorList    = "doctor_arr"
	fieldSubjectList   = "subject_arr"
	fieldSpecialtyList = "special"
)

// DetailFromDocument maps an info.json profile ({"data": {...}}) to an
// InstitutionDetail and its child collections. Every child carries the
// parent's school_id.
func DetailFromDocument(doc Document) (model.InstitutionDetail, model.DetailChildren, error) {
	var detail model.InstitutionDetail
	var children model.DetailChildren

	data, ok := doc.Data()
	if !ok {
		return detail, children, fmt.Errorf("institution detail: %w", ErrUnknownShape)
	}
	if err := Decode(data, &detail); err != nil {
		return detail, children, err
	}
	if detail.SchoolID == "" {
		return detail, children, ErrMissingSchoolID
	}
	schoolID := detail.SchoolID

	for _, rec := range childRecords(data, fieldMasterList) {
		var m model.MasterDegreePoint
		_ = Decode(rec, &m)
		m.SchoolID = schoolID
		children.MasterDegrees = append(children.MasterDegrees, m)
	}
	for _, rec := range childRecords(data, fieldDoctorList) {
		var d model.DoctorateDegreePoint
		_ = Decode(rec, &d)
		d.SchoolID = schoolID
		children.DoctorateDegrees = append(children.DoctorateDegrees, d)
	}
	for _, rec := range childRecords(data, fieldSubjectList) {
		if _, named := rec["name"]; !named {
			continue
		}
		var s model.Subject
		_ = Decode(rec, &s)
		s.SchoolID = schoolID
		children.Subjects = append(children.Subjects, s)
	}
	for _, rec := range childRecords(data, fieldSpecialtyList) {
		var sp model.Specialty
		_ = Decode(rec, &sp)
		sp.SchoolID = schoolID
		children.Specialties = append(children.Specialties, sp)
	}

	return detail, children, nil
}

// childRecords returns the object items of data[field]; non-object items and
// non-list values are ignored.
func childRecords(data Record, field string) []Record {
	list, ok := data[field].([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(list))
	for _, item := range list {
		if rec, ok := asRecord(item); ok {
			out = append(out, rec)
		}
	}
	return out
}
