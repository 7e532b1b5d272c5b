package handler

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
)

// maxProfilePicture caps the uploaded picture at 5 MiB, matching the
// backend's own limit.
const maxProfilePicture = 5 << 20

func getProfileHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())

		p := rt.profile.Profile()
		if p == nil {
			// Cache miss (e.g. the initial fetch failed); try again now.
			if err := rt.profile.Refresh(r.Context()); err != nil {
				handleServiceError(w, err, logger)
				return
			}
			p = rt.profile.Profile()
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func updateProfileHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())

		if err := r.ParseMultipartForm(maxProfilePicture); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		upd := &domain.ProfileUpdate{
			FullName:    r.FormValue("fullName"),
			PhoneNumber: r.FormValue("phoneNumber"),
			Address:     r.FormValue("address"),
		}
		if file, header, err := r.FormFile("profilePicture"); err == nil {
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, maxProfilePicture+1))
			if err != nil || len(data) > maxProfilePicture {
				writeError(w, http.StatusBadRequest, "profile picture too large")
				return
			}
			upd.PictureName = header.Filename
			upd.Picture = data
		}

		p, err := rt.profile.Update(r.Context(), upd)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
