package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/record"
)

type recordRepository struct {
	db    *recordTable
	users *userTable
}

var _ record.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *DB) *recordRepository {
	return &recordRepository{db: db.record, users: db.user}
}

// resolveNames fills in the denormalized reviewer name, leaving it null when
// the reviewer no longer resolves.
func (repo *recordRepository) resolveNames(ver record.VerificationState) record.VerificationState {
	ver = ver.Normalize()
	ver.ReviewerName = null.String{}
	if ver.ReviewerID.Valid {
		repo.users.RLock()
		if usr, ok := repo.users.users[ver.ReviewerID.String]; ok {
			ver.ReviewerName = null.StringFrom(usr.Name)
		}
		repo.users.RUnlock()
	}
	return ver
}

func (repo *recordRepository) ownerName(ownerID string) string {
	repo.users.RLock()
	defer repo.users.RUnlock()
	if usr, ok := repo.users.users[ownerID]; ok {
		return usr.Name
	}
	return ""
}

// verFor reads the joined verification row of a record; an absent entry is a
// pending state.
func (repo *recordRepository) verFor(kind record.Kind, id string) record.VerificationState {
	ver := repo.db.verifications[verKey{kind: kind, id: id}]
	return repo.resolveNames(ver)
}

// ---- qualification: verification state lives on the row itself ----

func (repo *recordRepository) CreateQualification(ctx context.Context, q record.Qualification) (record.Qualification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	q.ID = uuid.New().String()
	q.Verification = q.Verification.Normalize()
	repo.db.qualifications[q.ID] = &q
	return q, nil
}

func (repo *recordRepository) UpdateQualification(ctx context.Context, q record.Qualification) (record.Qualification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.qualifications[q.ID]
	if !ok {
		return record.Qualification{}, record.ErrNotFound
	}
	q.Verification = orig.Verification
	repo.db.qualifications[q.ID] = &q
	return q, nil
}

func (repo *recordRepository) GetQualification(ctx context.Context, id string) (record.Qualification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.qualifications[id]; ok {
		qual := *q
		qual.Verification = repo.resolveNames(qual.Verification)
		return qual, nil
	}
	return record.Qualification{}, record.ErrNotFound
}

func (repo *recordRepository) QueryQualifications(ctx context.Context, filter record.QueryFilter) ([]record.Qualification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	quals := make([]record.Qualification, 0)
	for _, q := range repo.db.qualifications {
		if !filter.Matches(q.OwnerID, q.Verification) {
			continue
		}
		qual := *q
		qual.Verification = repo.resolveNames(qual.Verification)
		quals = append(quals, qual)
	}
	sort.Slice(quals, func(i, j int) bool { return quals[i].DateObtained.After(quals[j].DateObtained) })
	return quals, nil
}

// ---- session ----

func (repo *recordRepository) CreateSession(ctx context.Context, s record.Session) (record.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = uuid.New().String()
	s.Verification = record.VerificationState{}.Normalize()
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *recordRepository) UpdateSession(ctx context.Context, s record.Session) (record.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sessions[s.ID]; !ok {
		return record.Session{}, record.ErrNotFound
	}
	repo.db.sessions[s.ID] = &s
	s.Verification = repo.verFor(record.KindSession, s.ID)
	return s, nil
}

func (repo *recordRepository) GetSession(ctx context.Context, id string) (record.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		sess := *s
		sess.Verification = repo.verFor(record.KindSession, id)
		return sess, nil
	}
	return record.Session{}, record.ErrNotFound
}

func (repo *recordRepository) QuerySessions(ctx context.Context, filter record.QueryFilter) ([]record.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]record.Session, 0)
	for id, s := range repo.db.sessions {
		ver := repo.verFor(record.KindSession, id)
		if !filter.Matches(s.OwnerID, ver) {
			continue
		}
		sess := *s
		sess.Verification = ver
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].SessionDate.After(sessions[j].SessionDate) })
	return sessions, nil
}

// ---- activity ----

func (repo *recordRepository) CreateActivity(ctx context.Context, a record.Activity) (record.Activity, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = uuid.New().String()
	a.Verification = record.VerificationState{}.Normalize()
	repo.db.activities[a.ID] = &a
	return a, nil
}

func (repo *recordRepository) UpdateActivity(ctx context.Context, a record.Activity) (record.Activity, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.activities[a.ID]; !ok {
		return record.Activity{}, record.ErrNotFound
	}
	repo.db.activities[a.ID] = &a
	a.Verification = repo.verFor(record.KindActivity, a.ID)
	return a, nil
}

func (repo *recordRepository) GetActivity(ctx context.Context, id string) (record.Activity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.activities[id]; ok {
		act := *a
		act.Verification = repo.verFor(record.KindActivity, id)
		return act, nil
	}
	return record.Activity{}, record.ErrNotFound
}

func (repo *recordRepository) QueryActivities(ctx context.Context, filter record.QueryFilter) ([]record.Activity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	activities := make([]record.Activity, 0)
	for id, a := range repo.db.activities {
		ver := repo.verFor(record.KindActivity, id)
		if !filter.Matches(a.OwnerID, ver) {
			continue
		}
		act := *a
		act.Verification = ver
		activities = append(activities, act)
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].CompletedAt.After(activities[j].CompletedAt) })
	return activities, nil
}

// ---- competency rating ----

func (repo *recordRepository) CreateCompetencyRating(ctx context.Context, c record.CompetencyRating) (record.CompetencyRating, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = uuid.New().String()
	c.Verification = record.VerificationState{}.Normalize()
	repo.db.competencies[c.ID] = &c
	return c, nil
}

func (repo *recordRepository) UpdateCompetencyRating(ctx context.Context, c record.CompetencyRating) (record.CompetencyRating, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.competencies[c.ID]; !ok {
		return record.CompetencyRating{}, record.ErrNotFound
	}
	repo.db.competencies[c.ID] = &c
	c.Verification = repo.verFor(record.KindCompetency, c.ID)
	return c, nil
}

func (repo *recordRepository) GetCompetencyRating(ctx context.Context, id string) (record.CompetencyRating, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.competencies[id]; ok {
		rating := *c
		rating.Verification = repo.verFor(record.KindCompetency, id)
		return rating, nil
	}
	return record.CompetencyRating{}, record.ErrNotFound
}

func (repo *recordRepository) QueryCompetencyRatings(ctx context.Context, filter record.QueryFilter) ([]record.CompetencyRating, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ratings := make([]record.CompetencyRating, 0)
	for id, c := range repo.db.competencies {
		ver := repo.verFor(record.KindCompetency, id)
		if !filter.Matches(c.OwnerID, ver) {
			continue
		}
		rating := *c
		rating.Verification = ver
		ratings = append(ratings, rating)
	}
	sort.Slice(ratings, func(i, j int) bool {
		if ratings[i].Category != ratings[j].Category {
			return ratings[i].Category < ratings[j].Category
		}
		return ratings[i].Name < ratings[j].Name
	})
	return ratings, nil
}

// ---- profile document ----

func (repo *recordRepository) CreateProfileDocument(ctx context.Context, d record.ProfileDocument) (record.ProfileDocument, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	d.ID = uuid.New().String()
	d.Verification = record.VerificationState{}.Normalize()
	repo.db.profileDocuments[d.ID] = &d
	d.OwnerName = repo.ownerName(d.OwnerID)
	return d, nil
}

func (repo *recordRepository) UpdateProfileDocument(ctx context.Context, d record.ProfileDocument) (record.ProfileDocument, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.profileDocuments[d.ID]; !ok {
		return record.ProfileDocument{}, record.ErrNotFound
	}
	repo.db.profileDocuments[d.ID] = &d
	d.Verification = repo.verFor(record.KindProfile, d.ID)
	d.OwnerName = repo.ownerName(d.OwnerID)
	return d, nil
}

func (repo *recordRepository) GetProfileDocument(ctx context.Context, id string) (record.ProfileDocument, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if d, ok := repo.db.profileDocuments[id]; ok {
		doc := *d
		doc.Verification = repo.verFor(record.KindProfile, id)
		doc.OwnerName = repo.ownerName(doc.OwnerID)
		return doc, nil
	}
	return record.ProfileDocument{}, record.ErrNotFound
}

func (repo *recordRepository) QueryProfileDocuments(ctx context.Context, filter record.QueryFilter) ([]record.ProfileDocument, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	docs := make([]record.ProfileDocument, 0)
	for id, d := range repo.db.profileDocuments {
		ver := repo.verFor(record.KindProfile, id)
		if !filter.Matches(d.OwnerID, ver) {
			continue
		}
		doc := *d
		doc.Verification = ver
		doc.OwnerName = repo.ownerName(doc.OwnerID)
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].OwnerName != docs[j].OwnerName {
			return docs[i].OwnerName < docs[j].OwnerName
		}
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, nil
}

// ---- cross-kind operations ----

func (repo *recordRepository) GetOwnerID(ctx context.Context, kind record.Kind, id string) (string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	switch kind {
	case record.KindQualification:
		if q, ok := repo.db.qualifications[id]; ok {
			return q.OwnerID, nil
		}
	case record.KindSession:
		if s, ok := repo.db.sessions[id]; ok {
			return s.OwnerID, nil
		}
	case record.KindActivity:
		if a, ok := repo.db.activities[id]; ok {
			return a.OwnerID, nil
		}
	case record.KindCompetency:
		if c, ok := repo.db.competencies[id]; ok {
			return c.OwnerID, nil
		}
	case record.KindProfile:
		if d, ok := repo.db.profileDocuments[id]; ok {
			return d.OwnerID, nil
		}
	default:
		return "", record.ErrUnknownKind
	}
	return "", record.ErrNotFound
}

func (repo *recordRepository) CountPending(ctx context.Context, kind record.Kind, ownerIDs []string) (int, error) {
	filter := record.QueryFilter{OwnerIDs: ownerIDs}

	repo.db.RLock()
	defer repo.db.RUnlock()

	var cnt int
	switch kind {
	case record.KindQualification:
		for _, q := range repo.db.qualifications {
			if filter.Matches(q.OwnerID, q.Verification) && q.Verification.Pending() {
				cnt++
			}
		}
	case record.KindSession:
		for id, s := range repo.db.sessions {
			if filter.Matches(s.OwnerID, record.VerificationState{}) && repo.db.verifications[verKey{kind: kind, id: id}].Pending() {
				cnt++
			}
		}
	case record.KindActivity:
		for id, a := range repo.db.activities {
			if filter.Matches(a.OwnerID, record.VerificationState{}) && repo.db.verifications[verKey{kind: kind, id: id}].Pending() {
				cnt++
			}
		}
	case record.KindCompetency:
		for id, c := range repo.db.competencies {
			if filter.Matches(c.OwnerID, record.VerificationState{}) && repo.db.verifications[verKey{kind: kind, id: id}].Pending() {
				cnt++
			}
		}
	case record.KindProfile:
		for id, d := range repo.db.profileDocuments {
			if filter.Matches(d.OwnerID, record.VerificationState{}) && repo.db.verifications[verKey{kind: kind, id: id}].Pending() {
				cnt++
			}
		}
	default:
		return 0, record.ErrUnknownKind
	}
	return cnt, nil
}

func (repo *recordRepository) UpsertVerification(ctx context.Context, kind record.Kind, recordID string, ver record.VerificationState) (record.VerificationState, error) {
	if !kind.Valid() {
		return record.VerificationState{}, record.ErrUnknownKind
	}

	repo.db.Lock()
	defer repo.db.Unlock()

	ver = ver.Normalize()
	if kind == record.KindQualification {
		q, ok := repo.db.qualifications[recordID]
		if !ok {
			return record.VerificationState{}, record.ErrNotFound
		}
		q.Verification = ver
	} else {
		repo.db.verifications[verKey{kind: kind, id: recordID}] = ver
	}
	return repo.resolveNames(ver), nil
}
