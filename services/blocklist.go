package services

import (
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/plateful-labs/plateful_api/dto"
	"github.com/plateful-labs/plateful_api/model"
	"github.com/plateful-labs/plateful_api/services/repositories"
)

// BlocklistService is the authoritative deny-list of client addresses.
// Temporary blocks expire lazily: the first lookup past blocked_until
// deletes the row, so no background sweep is needed for correctness.
type BlocklistService struct {
	context.DefaultService

	sqlSvc SqlService
	repo   *repositories.ProtectionRepository
}

const BLOCKLIST_SVC = "blocklist_svc"

func (svc BlocklistService) Id() string {
	return BLOCKLIST_SVC
}

func (svc *BlocklistService) Start() error {
	svc.sqlSvc = svc.Service(SqlServiceID()).(SqlService)
	svc.repo = repositories.NewProtectionRepository(svc.sqlSvc.Db())
	return nil
}

// IsBlocked reports whether the address is currently denied. Looking up
// an expired temporary block deletes it as a side effect and reports
// not-blocked; re-checking a purged address simply finds nothing.
func (svc *BlocklistService) IsBlocked(ipAddress string) (bool, error) {
	blocked, err := svc.repo.GetBlockedIP(ipAddress)
	if err != nil {
		return false, svc.sqlSvc.HandleError(err)
	}
	if blocked == nil {
		return false, nil
	}

	if blocked.Expired(time.Now()) {
		if err := svc.repo.DeleteBlockedIP(ipAddress); err != nil {
			log.WithFields(log.Fields{
				"ip":    ipAddress,
				"error": err.Error(),
			}).Warn("Failed to purge expired block entry")
		}
		return false, nil
	}

	return true, nil
}

// Block adds or refreshes a deny-list entry. A nil duration blocks the
// address permanently.
func (svc *BlocklistService) Block(ipAddress, reason string, duration *time.Duration) (*model.BlockedIP, error) {
	now := time.Now()
	entry := &model.BlockedIP{
		IPAddress: ipAddress,
		Reason:    reason,
		BlockedAt: now,
	}
	if duration != nil {
		until := now.Add(*duration)
		entry.BlockedUntil = &until
	}

	if err := svc.repo.UpsertBlockedIP(entry); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	log.WithFields(log.Fields{
		"ip":     ipAddress,
		"reason": reason,
	}).Info("IP address blocked")

	return entry, nil
}

func (svc *BlocklistService) Unblock(ipAddress string) error {
	if err := svc.repo.DeleteBlockedIP(ipAddress); err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	return nil
}

func (svc *BlocklistService) List() ([]dto.BlockedIPResponse, error) {
	rows, err := svc.repo.ListBlockedIPs()
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	out := make([]dto.BlockedIPResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.BlockedIPResponse{
			IPAddress:    row.IPAddress,
			Reason:       row.Reason,
			BlockedAt:    row.BlockedAt,
			BlockedUntil: row.BlockedUntil,
		})
	}
	return out, nil
}

func (svc *BlocklistService) ActiveCount() (int64, error) {
	return svc.repo.CountActiveBlocks(time.Now())
}

// CleanupExpired removes lapsed temporary blocks in bulk. Lazy expiry
// already keeps lookups correct; this just stops dead rows accumulating.
func (svc *BlocklistService) CleanupExpired() error {
	return svc.repo.DeleteExpiredBlocks(time.Now())
}
