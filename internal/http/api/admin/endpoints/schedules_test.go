package endpoints

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihalykrich/real-estate-display-system/internal/db"
	"github.com/mihalykrich/real-estate-display-system/internal/http/api"
	"github.com/mihalykrich/real-estate-display-system/internal/http/api/admin/packets"
	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

// fakeStore is an in-memory db.Store backing the handler tests.
type fakeStore struct {
	displays  map[int]model.Display
	schedules map[int]model.ScheduledDisplay
	images    map[int][]model.ScheduledImage
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		displays:  map[int]model.Display{},
		schedules: map[int]model.ScheduledDisplay{},
		images:    map[int][]model.ScheduledImage{},
		nextID:    1,
	}
}

func (f *fakeStore) CreateUser(email, hashedPassword string, name *string, role string) (int, error) {
	return 0, fmt.Errorf("not implemented")
}
func (f *fakeStore) GetUserByEmail(email string) (*model.User, error) { return nil, db.ErrNotFound }
func (f *fakeStore) GetUserByID(id int) (*model.User, error)          { return nil, db.ErrNotFound }
func (f *fakeStore) UpdateUserProfile(id int, email string, name *string) error {
	return fmt.Errorf("not implemented")
}

func (f *fakeStore) GetDisplayByID(id int) (model.Display, error) {
	d, ok := f.displays[id]
	if !ok {
		return model.Display{}, db.ErrNotFound
	}
	return d, nil
}
func (f *fakeStore) GetDisplayByDeviceID(deviceID string) (model.Display, error) {
	return model.Display{}, db.ErrNotFound
}
func (f *fakeStore) ListDisplays() ([]model.Display, error) { return nil, nil }
func (f *fakeStore) UpdateDisplay(id int, update db.DisplayUpdate) (model.Display, error) {
	return f.GetDisplayByID(id)
}
func (f *fakeStore) SetDisplayQRCode(id int, fileName string) error { return nil }
func (f *fakeStore) ReplaceDisplays(displays []model.Display) error { return nil }
func (f *fakeStore) ApplyContentToDisplay(displayID int, contentData string, images []model.ScheduledImage) error {
	return nil
}

func (f *fakeStore) CreateScheduledDisplay(s model.ScheduledDisplay) (model.ScheduledDisplay, error) {
	s.ID = f.nextID
	f.nextID++
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	f.schedules[s.ID] = s
	return s, nil
}

func (f *fakeStore) GetScheduledDisplay(id int) (model.ScheduledDisplay, error) {
	s, ok := f.schedules[id]
	if !ok {
		return model.ScheduledDisplay{}, db.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) ListScheduledDisplays(activeOnly *bool) ([]model.ScheduledDisplay, error) {
	var out []model.ScheduledDisplay
	for _, s := range f.schedules {
		if activeOnly == nil || s.IsActive == *activeOnly {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateScheduledDisplay(id int, update db.ScheduledDisplayUpdate) (model.ScheduledDisplay, error) {
	s, ok := f.schedules[id]
	if !ok {
		return model.ScheduledDisplay{}, db.ErrNotFound
	}
	if update.Name != nil {
		s.Name = *update.Name
	}
	if update.Description != nil {
		s.Description = update.Description
	}
	if update.TargetDisplayID != nil {
		s.TargetDisplayID = *update.TargetDisplayID
	}
	if update.StartDate != nil {
		s.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		s.EndDate = update.EndDate
	}
	if update.IsActive != nil {
		s.IsActive = *update.IsActive
	}
	if update.ScheduleType != nil {
		s.ScheduleType = *update.ScheduleType
	}
	if update.ScheduleTime != nil {
		s.ScheduleTime = update.ScheduleTime
	}
	if update.ScheduleDays != nil {
		s.ScheduleDays = update.ScheduleDays
	}
	if update.ScheduleDate != nil {
		s.ScheduleDate = update.ScheduleDate
	}
	if update.ContentData != nil {
		s.ContentData = *update.ContentData
	}
	if update.RecomputeNext {
		s.NextExecution = update.NextExecution
	}
	s.UpdatedAt = time.Now()
	f.schedules[id] = s
	return s, nil
}

func (f *fakeStore) SetScheduledDisplayActive(id int, active bool) error {
	s, ok := f.schedules[id]
	if !ok {
		return db.ErrNotFound
	}
	s.IsActive = active
	f.schedules[id] = s
	return nil
}

func (f *fakeStore) DeleteScheduledDisplay(id int) error {
	if _, ok := f.schedules[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.schedules, id)
	delete(f.images, id)
	return nil
}

func (f *fakeStore) UpsertScheduledImage(img model.ScheduledImage) (model.ScheduledImage, error) {
	existing := f.images[img.ScheduledDisplayID]
	for i, it := range existing {
		if it.ImageType == img.ImageType {
			img.ID = it.ID
			existing[i] = img
			return img, nil
		}
	}
	img.ID = f.nextID
	f.nextID++
	f.images[img.ScheduledDisplayID] = append(existing, img)
	return img, nil
}

func (f *fakeStore) DeleteScheduledImage(scheduledDisplayID int, imageType string) error {
	existing := f.images[scheduledDisplayID]
	for i, it := range existing {
		if it.ImageType == imageType {
			f.images[scheduledDisplayID] = append(existing[:i], existing[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) ListScheduledImages(scheduledDisplayID int) ([]model.ScheduledImage, error) {
	return f.images[scheduledDisplayID], nil
}

func (f *fakeStore) ListDueScheduledDisplays(now time.Time) ([]model.ScheduledDisplay, error) {
	return nil, nil
}
func (f *fakeStore) ClaimScheduledDisplay(id int, expectedNext time.Time, now time.Time) (bool, error) {
	return false, nil
}
func (f *fakeStore) ReleaseScheduledDisplayClaim(id int) error { return nil }
func (f *fakeStore) MarkScheduledDisplayExecuted(id int, executedAt time.Time, next *time.Time, deactivate bool) error {
	return nil
}

var _ db.Store = (*fakeStore)(nil)

type fakeStorage struct {
	saved []string
}

func (f *fakeStorage) SaveFile(fileHeader *multipart.FileHeader, subdir, filename string) (string, error) {
	path := "/uploads/" + subdir + "/" + filename
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakeStorage) SaveBytes(data []byte, subdir, filename string) (string, error) {
	path := "/uploads/" + subdir + "/" + filename
	f.saved = append(f.saved, path)
	return path, nil
}

// testNow keeps next_execution assertions deterministic.
var testNow = time.Date(2026, time.January, 1, 8, 0, 0, 0, time.UTC) // a Thursday

func newTestRouter(store db.Store, storageSystem *fakeStorage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	ctl := NewScheduleController(store, storageSystem)
	ctl.clock = func() time.Time { return testNow }
	module := api.ModuleFunc(func(c *api.Controller) {
		c.GET("/schedules", ctl.listSchedules)
		c.POST("/schedules", ctl.createSchedule)
		c.GET("/schedules/:id", ctl.getSchedule)
		c.PATCH("/schedules/:id", ctl.updateSchedule)
		c.DELETE("/schedules/:id", ctl.deleteSchedule)
		c.POST("/schedules/:id/activate", ctl.activateSchedule)
		c.POST("/schedules/:id/deactivate", ctl.deactivateSchedule)
		c.POST("/schedules/:id/images", ctl.uploadScheduleImage)
		c.DELETE("/schedules/:id/images/:image_type", ctl.deleteScheduleImage)
	})

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Middleware: []gin.HandlerFunc{func(c *gin.Context) {
			c.Set("currentUser", &model.User{ID: 1, Email: "admin@example.com", Role: "admin"})
		}},
	}, module)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createRequestBody() map[string]any {
	return map[string]any{
		"name":              "weekend open house",
		"target_display_id": 3,
		"start_date":        "2026-01-01T00:00:00Z",
		"schedule_type":     "daily",
		"schedule_time":     "09:00",
		"content_data":      `{"address":"12 Harbour St","price":"$750,000"}`,
	}
}

func TestCreateSchedule_ComputesNextExecution(t *testing.T) {
	store := newFakeStore()
	store.displays[3] = model.Display{ID: 3}
	r := newTestRouter(store, &fakeStorage{})

	w := doJSON(t, r, http.MethodPost, "/api/admin/schedules", createRequestBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp packets.ScheduledDisplayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "weekend open house", resp.Name)
	assert.True(t, resp.IsActive)
	// 08:00 on the start date is before the 09:00 slot, so it fires same day.
	require.NotNil(t, resp.NextExecution)
	assert.Equal(t, "2026-01-01T09:00:00Z", *resp.NextExecution)

	stored, err := store.GetScheduledDisplay(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TargetDisplayID)
}

func TestCreateSchedule_UnknownDisplay(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, &fakeStorage{})

	w := doJSON(t, r, http.MethodPost, "/api/admin/schedules", createRequestBody())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, store.schedules)
}

func TestCreateSchedule_InvalidRecurrence(t *testing.T) {
	store := newFakeStore()
	store.displays[3] = model.Display{ID: 3}
	r := newTestRouter(store, &fakeStorage{})

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"weekly without days", func(b map[string]any) { b["schedule_type"] = "weekly" }},
		{"monthly without date", func(b map[string]any) { b["schedule_type"] = "monthly" }},
		{"bad clock", func(b map[string]any) { b["schedule_time"] = "9am" }},
		{"unknown type", func(b map[string]any) { b["schedule_type"] = "hourly" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := createRequestBody()
			tt.mutate(body)
			w := doJSON(t, r, http.MethodPost, "/api/admin/schedules", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
	assert.Empty(t, store.schedules)
}

func TestUpdateSchedule_RecurrenceChangeRecomputes(t *testing.T) {
	store := newFakeStore()
	store.displays[3] = model.Display{ID: 3}
	r := newTestRouter(store, &fakeStorage{})

	w := doJSON(t, r, http.MethodPost, "/api/admin/schedules", createRequestBody())
	require.Equal(t, http.StatusOK, w.Code)
	var created packets.ScheduledDisplayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Switch to weekly Mon/Wed/Fri; days arrive unsorted and must come back
	// canonical, with next_execution landing on Friday Jan 2.
	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/admin/schedules/%d", created.ID), map[string]any{
		"schedule_type": "weekly",
		"schedule_days": "5,1,3",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated packets.ScheduledDisplayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.NotNil(t, updated.ScheduleDays)
	assert.Equal(t, "1,3,5", *updated.ScheduleDays)
	require.NotNil(t, updated.NextExecution)
	assert.Equal(t, "2026-01-02T09:00:00Z", *updated.NextExecution)
}

func TestUpdateSchedule_ToggleActiveKeepsNextExecution(t *testing.T) {
	store := newFakeStore()
	store.displays[3] = model.Display{ID: 3}
	r := newTestRouter(store, &fakeStorage{})

	w := doJSON(t, r, http.MethodPost, "/api/admin/schedules", createRequestBody())
	require.Equal(t, http.StatusOK, w.Code)
	var created packets.ScheduledDisplayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/admin/schedules/%d", created.ID), map[string]any{
		"is_active": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated packets.ScheduledDisplayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.NextExecution)
	assert.Equal(t, *created.NextExecution, *updated.NextExecution)
}

func TestDeactivateSchedule_KeepsNextExecution(t *testing.T) {
	store := newFakeStore()
	store.displays[3] = model.Display{ID: 3}
	r := newTestRouter(store, &fakeStorage{})

	w := doJSON(t, r, http.MethodPost, "/api/admin/schedules", createRequestBody())
	require.Equal(t, http.StatusOK, w.Code)
	var created packets.ScheduledDisplayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/admin/schedules/%d/deactivate", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp packets.ScheduledDisplayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.IsActive)
	require.NotNil(t, resp.NextExecution)
	assert.Equal(t, *created.NextExecution, *resp.NextExecution)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/admin/schedules/%d/activate", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsActive)

	w = doJSON(t, r, http.MethodPost, "/api/admin/schedules/9999/activate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSchedules_ActiveFilter(t *testing.T) {
	store := newFakeStore()
	store.displays[3] = model.Display{ID: 3}
	r := newTestRouter(store, &fakeStorage{})

	w := doJSON(t, r, http.MethodPost, "/api/admin/schedules", createRequestBody())
	require.Equal(t, http.StatusOK, w.Code)

	inactive := createRequestBody()
	inactive["name"] = "dormant"
	inactive["is_active"] = false
	w = doJSON(t, r, http.MethodPost, "/api/admin/schedules", inactive)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/admin/schedules?active=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []packets.ScheduledDisplayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "weekend open house", list[0].Name)

	w = doJSON(t, r, http.MethodGet, "/api/admin/schedules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestDeleteSchedule(t *testing.T) {
	store := newFakeStore()
	store.displays[3] = model.Display{ID: 3}
	r := newTestRouter(store, &fakeStorage{})

	w := doJSON(t, r, http.MethodPost, "/api/admin/schedules", createRequestBody())
	require.Equal(t, http.StatusOK, w.Code)
	var created packets.ScheduledDisplayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/admin/schedules/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/admin/schedules/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/admin/schedules/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadScheduleImage(t *testing.T) {
	store := newFakeStore()
	store.displays[3] = model.Display{ID: 3}
	storageSystem := &fakeStorage{}
	r := newTestRouter(store, storageSystem)

	w := doJSON(t, r, http.MethodPost, "/api/admin/schedules", createRequestBody())
	require.Equal(t, http.StatusOK, w.Code)
	var created packets.ScheduledDisplayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	upload := func(imageType, fileName string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("image_type", imageType))
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake image bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/admin/schedules/%d/images", created.ID), &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w = upload(model.ImageTypeMain, "front.jpg")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var img packets.ScheduledImageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &img))
	assert.Equal(t, model.ImageTypeMain, img.ImageType)
	assert.Equal(t, "front.jpg", img.FileName)

	// A second upload for the same slot replaces the record.
	w = upload(model.ImageTypeMain, "front_v2.jpg")
	require.Equal(t, http.StatusOK, w.Code)
	images, err := store.ListScheduledImages(created.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "front_v2.jpg", images[0].FileName)

	w = upload("banner", "banner.jpg")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteScheduleImage(t *testing.T) {
	store := newFakeStore()
	store.displays[3] = model.Display{ID: 3}
	r := newTestRouter(store, &fakeStorage{})

	w := doJSON(t, r, http.MethodPost, "/api/admin/schedules", createRequestBody())
	require.Equal(t, http.StatusOK, w.Code)
	var created packets.ScheduledDisplayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	_, err := store.UpsertScheduledImage(model.ScheduledImage{
		ScheduledDisplayID: created.ID,
		ImageType:          model.ImageTypeMain,
		FileName:           "front.jpg",
		FilePath:           "/uploads/1/front.jpg",
	})
	require.NoError(t, err)

	path := fmt.Sprintf("/api/admin/schedules/%d/images/%s", created.ID, model.ImageTypeMain)
	w = doJSON(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	images, err := store.ListScheduledImages(created.ID)
	require.NoError(t, err)
	assert.Empty(t, images)

	// deleting again is still OK
	w = doJSON(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequiresAuthenticatedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/admin"},
		ScheduleModule(newFakeStore(), &fakeStorage{}))

	w := doJSON(t, r, http.MethodGet, "/api/admin/schedules", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
