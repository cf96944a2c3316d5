package utils

import (
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

var phonePrefixes = []string{
	"134", "135", "136", "137", "138", "139", "150", "151",
	"152", "157", "158", "159", "187", "188",
}

func GenerateRandomPhone() string {
	phone := "+86" + phonePrefixes[rand.Intn(len(phonePrefixes))]
	for i := 0; i < 8; i++ {
		phone += string(digits[rand.Intn(len(digits))])
	}
	return phone
}

var caregiverRoles = []domain.CaregiverRole{
	domain.RoleNurse,
	domain.RoleCareWorker,
	domain.RoleRehabTherapist,
}

func GenerateRandomCaregiverRole() domain.CaregiverRole {
	return caregiverRoles[rand.Intn(len(caregiverRoles))]
}

func GenerateRandomCaregiver() *domain.Caregiver {
	return &domain.Caregiver{
		FullName: GenerateRandomChineseName(),
		Role:     GenerateRandomCaregiverRole(),
		Phone:    GenerateRandomPhone(),
	}
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// 生成未来一周内的随机班次
func GenerateRandomShift() *domain.Shift {
	start := time.Now().Add(time.Duration(rand.Intn(24*7)) * time.Hour).Truncate(time.Hour)
	duration := time.Duration(rand.Intn(5)+4) * time.Hour // 4~8 小时

	return &domain.Shift{
		OrganizationID: "org-" + GenerateRandomID(3, 3),
		RoleRequired:   GenerateRandomCaregiverRole(),
		StartTime:      start,
		EndTime:        start.Add(duration),
	}
}

func GenerateRandomCoordinator(password string) (*domain.Coordinator, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	coordinator := &domain.Coordinator{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
	}

	return coordinator, nil
}
