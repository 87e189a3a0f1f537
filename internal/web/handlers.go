package web

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhinavdhar/creditbook/types"
)

const maxBodySize = 64 << 10 // 64KB

type createRequest struct {
	Name string `json:"name"`
}

type historyEntryRequest struct {
	Date    *time.Time `json:"date"`
	Action  string     `json:"action"`
	Details string     `json:"details"`
	Amount  *float64   `json:"amount"`
}

// updateRequest is the tagged PUT body. Without an action it is a
// partial field update; "mark_paid" and "reschedule" invoke the
// corresponding lifecycle operations.
type updateRequest struct {
	Action        string               `json:"action"`
	Name          *string              `json:"name"`
	Status        *string              `json:"status"`
	LastVisit     *time.Time           `json:"lastVisit"`
	FollowUp      *time.Time           `json:"followUp"`
	ClearFollowUp bool                 `json:"clearFollowUp"`
	HistoryEntry  *historyEntryRequest `json:"historyEntry"`
}

func (s *Server) handleList(c *gin.Context) {
	list, err := s.service.List(c.Query("filter"))
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []*types.Creditor{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleCreate(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	creditor, err := s.service.Create(req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, creditor)
}

func (s *Server) handleUpdate(c *gin.Context) {
	id := c.Param("id")

	req, err := decodeUpdateRequest(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var creditor *types.Creditor
	switch req.Action {
	case "mark_paid":
		creditor, err = s.service.MarkPaid(id)
	case "reschedule":
		if req.FollowUp == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reschedule requires a followUp date"})
			return
		}
		creditor, err = s.service.Reschedule(id, *req.FollowUp)
	case "":
		upd, buildErr := buildUpdate(req)
		if buildErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": buildErr.Error()})
			return
		}
		creditor, err = s.service.Update(id, upd)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action: " + req.Action})
		return
	}

	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, creditor)
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.service.Delete(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func decodeUpdateRequest(body io.Reader) (*updateRequest, error) {
	dec := json.NewDecoder(io.LimitReader(body, maxBodySize))
	dec.DisallowUnknownFields()
	var req updateRequest
	if err := dec.Decode(&req); err != nil {
		return nil, errors.New("invalid request body: " + err.Error())
	}
	return &req, nil
}

func buildUpdate(req *updateRequest) (types.CreditorUpdate, error) {
	upd := types.CreditorUpdate{
		Name:          req.Name,
		LastVisit:     req.LastVisit,
		FollowUp:      req.FollowUp,
		ClearFollowUp: req.ClearFollowUp,
	}
	if req.Status != nil {
		status, ok := types.ParseStatus(*req.Status)
		if !ok {
			return types.CreditorUpdate{}, errors.New("invalid status: " + *req.Status)
		}
		upd.Status = &status
	}
	if e := req.HistoryEntry; e != nil {
		entry := types.HistoryEntry{
			Action:  e.Action,
			Details: e.Details,
			Amount:  e.Amount,
		}
		if e.Date != nil {
			entry.Date = *e.Date
		}
		upd.HistoryEntry = &entry
	}
	return upd, nil
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("API error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
