package seed

import (
	"context"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/repository"
)

var demoCaregivers = []domain.Caregiver{
	{FullName: "林小芳", Role: domain.RoleNurse, Phone: "+8613800000001"},
	{FullName: "陈静怡", Role: domain.RoleNurse, Phone: "+8613800000002"},
	{FullName: "王建军", Role: domain.RoleCareWorker, Phone: "+8613800000003"},
	{FullName: "李玉梅", Role: domain.RoleCareWorker, Phone: "+8613800000004"},
	{FullName: "张鹏飞", Role: domain.RoleRehabTherapist, Phone: "+8613800000005"},
}

// SeedDemoData 插入一组固定的演示数据，方便本地把广播/认领/升级完整跑一遍
func SeedDemoData(repo *repository.Repository) {
	ctx := context.Background()

	for i := range demoCaregivers {
		caregiver := demoCaregivers[i]
		if err := repo.CreateCaregiver(ctx, &caregiver); err != nil {
			slog.Error("插入演示护工失败", "fullName", caregiver.FullName, "error", err)
			continue
		}
		slog.Info("插入演示护工成功", "id", caregiver.ID, "fullName", caregiver.FullName, "role", caregiver.Role)
	}

	tomorrow := time.Now().AddDate(0, 0, 1).Truncate(time.Hour)
	demoShifts := []domain.Shift{
		{OrganizationID: "org-demo", RoleRequired: domain.RoleNurse, StartTime: tomorrow.Add(8 * time.Hour), EndTime: tomorrow.Add(16 * time.Hour)},
		{OrganizationID: "org-demo", RoleRequired: domain.RoleCareWorker, StartTime: tomorrow.Add(16 * time.Hour), EndTime: tomorrow.Add(24 * time.Hour)},
		// 故意留一个没有任何护工匹配的班次，用来演示零接收者升级
		{OrganizationID: "org-demo", RoleRequired: domain.CaregiverRole("营养师"), StartTime: tomorrow.Add(9 * time.Hour), EndTime: tomorrow.Add(17 * time.Hour)},
	}

	for i := range demoShifts {
		shift := demoShifts[i]
		if err := repo.CreateShift(ctx, &shift); err != nil {
			slog.Error("插入演示班次失败", "roleRequired", shift.RoleRequired, "error", err)
			continue
		}
		slog.Info("插入演示班次成功", "id", shift.ID, "roleRequired", shift.RoleRequired)
	}
}
