package web

import (
	"fmt"
	"net/url"

	vm "github.com/ericfisherdev/fleetcert/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

const auditTimeLayout = "2006-01-02 15:04"

var bucketLabels = map[model.Bucket]string{
	model.BucketExpired:  "Overdue",
	model.BucketExpiring: "Expiring",
	model.BucketValid:    "Valid",
	model.BucketNoDate:   "No Date",
}

// toDashboardViewModel converts the aggregated fleet status for display.
func toDashboardViewModel(status model.FleetStatus, today, search string, canEdit bool) vm.DashboardViewModel {
	out := vm.DashboardViewModel{
		Today:   today,
		Search:  search,
		Health:  status.Health,
		Total:   status.Total,
		CanEdit: canEdit,
		Counts:  make([]vm.BucketCountViewModel, 0, len(model.Buckets)),
		Alerts:  make([]vm.AlertViewModel, 0, len(status.Alerts)),
		Vessels: make([]vm.VesselViewModel, 0, len(status.Vessels)),
	}

	for _, b := range model.Buckets {
		out.Counts = append(out.Counts, vm.BucketCountViewModel{
			Label: bucketLabels[b],
			Tone:  b.Tone(),
			Count: status.Counts[b],
		})
	}

	for _, a := range status.Alerts {
		out.Alerts = append(out.Alerts, vm.AlertViewModel{
			Vessel:      a.VesselName,
			Certificate: a.CertificateName,
			Label:       a.Label,
			Tone:        a.Bucket.Tone(),
		})
	}

	for _, vs := range status.Vessels {
		out.Vessels = append(out.Vessels, toVesselViewModel(vs))
	}
	return out
}

func toVesselViewModel(vs model.VesselStatus) vm.VesselViewModel {
	v := vm.VesselViewModel{
		ID:           vs.Vessel.ID,
		Name:         vs.Vessel.Name,
		IMO:          vs.Vessel.IMO,
		Flag:         vs.Vessel.Flag,
		ClassSociety: vs.Vessel.ClassSociety,
		VesselType:   vs.Vessel.VesselType,
		AlertCount:   vs.AlertCount(),
		Certificates: make([]vm.CertificateViewModel, 0, len(vs.Certificates)),
	}
	for _, ac := range vs.Certificates {
		v.Certificates = append(v.Certificates, toCertificateViewModel(ac))
	}
	return v
}

func toCertificateViewModel(ac model.AnnotatedCertificate) vm.CertificateViewModel {
	c := ac.Certificate
	out := vm.CertificateViewModel{
		ID:                 c.ID,
		Name:               c.Name,
		Category:           c.Category,
		ExpiryDate:         model.FormatDate(c.ExpiryDate),
		StatusLabel:        ac.Status.Label,
		Tone:               ac.Status.Tone(),
		IsConditionOfClass: c.IsConditionOfClass,
		RemarksHTML:        RenderMarkdown(c.Remarks),
		UpdatePath:         fmt.Sprintf("/cert/%d/update", c.ID),
		DeletePath:         fmt.Sprintf("/cert/%d/delete", c.ID),
	}
	if c.HasFile() {
		out.FileURL = "/uploads/" + url.PathEscape(c.FilePath)
	}
	return out
}

func toConfirmDeleteViewModel(c model.Certificate) vm.ConfirmDeleteViewModel {
	return vm.ConfirmDeleteViewModel{
		Name:       c.Name,
		Category:   c.Category,
		ExpiryDate: model.FormatDate(c.ExpiryDate),
		DeletePath: fmt.Sprintf("/cert/%d/delete", c.ID),
	}
}

// toAdminViewModel converts the admin console lists for display.
func toAdminViewModel(
	vessels []model.Vessel,
	users []model.User,
	audit []model.AuditEntry,
	self model.Identity,
) vm.AdminViewModel {
	out := vm.AdminViewModel{
		Vessels: make([]vm.VesselOptionViewModel, 0, len(vessels)),
		Users:   make([]vm.UserViewModel, 0, len(users)),
		Audit:   make([]vm.AuditViewModel, 0, len(audit)),
		Roles:   []string{string(model.RoleViewer), string(model.RoleAdmin)},
	}

	for _, v := range vessels {
		out.Vessels = append(out.Vessels, vm.VesselOptionViewModel{ID: v.ID, Name: v.Name, IMO: v.IMO})
	}
	for _, u := range users {
		out.Users = append(out.Users, vm.UserViewModel{
			ID:        u.ID,
			Username:  u.Username,
			Role:      string(u.Role),
			Protected: u.Protected,
			IsSelf:    u.ID == self.UserID,
		})
	}
	for _, e := range audit {
		out.Audit = append(out.Audit, vm.AuditViewModel{
			When:     e.CreatedAt.Format(auditTimeLayout),
			Username: e.Username,
			Action:   e.Action,
		})
	}
	return out
}
