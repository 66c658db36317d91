package email

import (
	"context"
	"fmt"

	"automedon/internal/models"
)

// MissionNotifier sends mission lifecycle emails. It satisfies the missions
// module's NotifierInterface.
type MissionNotifier struct {
	sender          ServiceInterface
	templateManager *TemplateManager
}

// NewMissionNotifier creates a notifier on top of an email sender.
func NewMissionNotifier(sender ServiceInterface, tm *TemplateManager) *MissionNotifier {
	return &MissionNotifier{sender: sender, templateManager: tm}
}

// SendMissionClaimed tells the mission owner a convoyeur accepted their
// mission.
func (n *MissionNotifier) SendMissionClaimed(ctx context.Context, to string, mission *models.Mission) error {
	htmlContent, err := n.templateManager.GenerateMissionClaimedEmailHTML(TemplateData{
		Immatriculation: mission.Immatriculation,
		Modele:          mission.Modele,
		LieuDepart:      mission.LieuDepart,
		LieuArrivee:     mission.LieuArrivee,
	})
	if err != nil {
		return fmt.Errorf("email.SendMissionClaimed: %w", err)
	}

	subject := fmt.Sprintf("Mission acceptée - %s %s", mission.Modele, mission.Immatriculation)
	plainText := fmt.Sprintf(
		"Un convoyeur a accepté la mission %s (%s), de %s vers %s.",
		mission.Modele, mission.Immatriculation, mission.LieuDepart, mission.LieuArrivee)

	return n.sender.SendEmail(ctx, to, subject, plainText, htmlContent)
}
