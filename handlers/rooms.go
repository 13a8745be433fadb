package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	roomRepo "roomwise/database/repository/room"
	"roomwise/utils"
)

// ListRoomsHandler lists the active rooms, optionally filtered by a
// min_capacity query param.
func ListRoomsHandler(repo roomRepo.RoomRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		minCapacity := 1
		if raw := c.Query("min_capacity"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				utils.JSONError(c, http.StatusBadRequest, "invalid min_capacity", "")
				return
			}
			minCapacity = parsed
		}
		rooms, err := repo.GetActive(c.Request.Context(), minCapacity)
		if err != nil {
			utils.JSONServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
	}
}
