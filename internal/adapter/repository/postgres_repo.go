package repository

import (
	"context"
	"sort"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ai-trend-radar/internal/common"
	"ai-trend-radar/internal/domain"
)

// PostgresRepo 实现了 port.Repository 接口
// 数据按 (date, url) 唯一：同一天重复入库走合并，不同天各存一份
type PostgresRepo struct {
	db                 *gorm.DB
	relevanceThreshold float64
	retentionDays      int
	nowFunc            func() time.Time
}

// NewPostgresRepo 初始化数据库连接并自动迁移表结构
func NewPostgresRepo(dsn string, relevanceThreshold float64, retentionDays int) (*PostgresRepo, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, common.WrapError(common.ErrCodePersistence, "连接数据库失败", err)
	}

	// 自动迁移：字段变了也会自动更新表结构
	if err := db.AutoMigrate(&domain.Project{}, &domain.RawRecord{}); err != nil {
		return nil, common.WrapError(common.ErrCodePersistence, "数据库迁移失败", err)
	}

	return &PostgresRepo{
		db:                 db,
		relevanceThreshold: relevanceThreshold,
		retentionDays:      retentionDays,
		nowFunc:            time.Now,
	}, nil
}

// SaveDailyData 把一批项目合并进 date 当天的数据集
// 同 URL 已存在时按字段合并，绝不整行覆盖：已有的 AI 分析不会被 nil 冲掉
func (r *PostgresRepo) SaveDailyData(ctx context.Context, projects []*domain.Project, date string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []*domain.Project
		if err := tx.Where("date = ?", date).Find(&existing).Error; err != nil {
			return err
		}

		byURL := make(map[string]*domain.Project, len(existing))
		for _, p := range existing {
			byURL[p.NormalizedURL()] = p
		}

		for _, incoming := range projects {
			prior, ok := byURL[incoming.NormalizedURL()]
			if !ok {
				// 日期写在克隆上，调用方手里的对象保持原样
				row := incoming.Clone()
				row.ID = 0
				row.Date = date
				if err := tx.Create(row).Error; err != nil {
					return err
				}
				byURL[row.NormalizedURL()] = row
				continue
			}

			mergeInto(prior, incoming)
			if err := tx.Save(prior).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return common.WrapError(common.ErrCodePersistence, "保存每日数据失败", err)
	}
	return nil
}

// mergeInto 把 incoming 的字段合并进 prior（prior 是数据库里已有的那行）
func mergeInto(prior, incoming *domain.Project) {
	// 基础信息以新抓取为准
	prior.Name = incoming.Name
	if incoming.Description != "" {
		prior.Description = incoming.Description
	}
	if incoming.Author != "" {
		prior.Author = incoming.Author
	}
	if incoming.Language != "" {
		prior.Language = incoming.Language
	}

	// 热度指标取峰值
	if incoming.Stars > prior.Stars {
		prior.Stars = incoming.Stars
	}
	if incoming.Forks > prior.Forks {
		prior.Forks = incoming.Forks
	}
	if incoming.Votes > prior.Votes {
		prior.Votes = incoming.Votes
	}

	// 标签取并集，保持已有顺序
	seen := make(map[string]struct{}, len(prior.Tags))
	for _, tag := range prior.Tags {
		seen[tag] = struct{}{}
	}
	for _, tag := range incoming.Tags {
		if _, dup := seen[tag]; !dup {
			seen[tag] = struct{}{}
			prior.Tags = append(prior.Tags, tag)
		}
	}

	if incoming.CrawledAt.After(prior.CrawledAt) {
		prior.CrawledAt = incoming.CrawledAt
	}

	// AI 分析只进不退：新结果覆盖旧结果，没有新结果就保留旧的
	if incoming.AIClassification != nil {
		prior.AIClassification = incoming.AIClassification
	}
	if incoming.Keywords != nil {
		prior.Keywords = incoming.Keywords
	}
	if incoming.Summary != nil {
		prior.Summary = incoming.Summary
	}
	if incoming.RawData != nil {
		prior.RawData = incoming.RawData
	}
}

// SaveRawData 归档一个数据源的原始抓取载荷
func (r *PostgresRepo) SaveRawData(ctx context.Context, source string, fetchedAt time.Time, records []*domain.RawRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]*domain.RawRecord, 0, len(records))
	for _, rec := range records {
		rows = append(rows, &domain.RawRecord{
			Source:    source,
			FetchedAt: fetchedAt,
			Payload:   rec.Payload,
		})
	}

	if err := r.db.WithContext(ctx).Create(rows).Error; err != nil {
		return common.WrapError(common.ErrCodePersistence, "归档原始数据失败", err)
	}
	return nil
}

// GetProjectsByDate 取某一天的项目集，按 Star 数降序
func (r *PostgresRepo) GetProjectsByDate(ctx context.Context, date string) ([]*domain.Project, error) {
	var projects []*domain.Project
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Order("stars DESC").
		Find(&projects).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodePersistence, "查询每日数据失败", err)
	}
	return projects, nil
}

// GetRecentProjects 取最近 days 个日历日的并集
// 同一项目跨天出现时只留最新一天的记录，旧记录上的 AI 分析会回填
func (r *PostgresRepo) GetRecentProjects(ctx context.Context, days int) ([]*domain.Project, error) {
	if days <= 0 {
		days = 1
	}
	cutoff := r.nowFunc().AddDate(0, 0, -(days - 1)).Format("2006-01-02")

	var projects []*domain.Project
	err := r.db.WithContext(ctx).
		Where("date >= ?", cutoff).
		Order("date DESC, stars DESC").
		Find(&projects).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodePersistence, "查询近期数据失败", err)
	}

	seen := make(map[string]*domain.Project, len(projects))
	unique := make([]*domain.Project, 0, len(projects))
	for _, p := range projects {
		key := p.NormalizedURL()
		if kept, dup := seen[key]; dup {
			// 旧记录只用来补缺
			if kept.AIClassification == nil {
				kept.AIClassification = p.AIClassification
			}
			if kept.Keywords == nil {
				kept.Keywords = p.Keywords
			}
			if kept.Summary == nil {
				kept.Summary = p.Summary
			}
			continue
		}
		seen[key] = p
		unique = append(unique, p)
	}
	return unique, nil
}

// GetDailyStats 计算某一天的聚合统计
func (r *PostgresRepo) GetDailyStats(ctx context.Context, date string) (*domain.DailyStats, error) {
	projects, err := r.GetProjectsByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	stats := &domain.DailyStats{Date: date, TotalProjects: len(projects)}
	if len(projects) == 0 {
		return stats, nil
	}

	totalStars := 0
	langCount := make(map[string]int)
	var top *domain.Project
	for _, p := range projects {
		totalStars += p.Stars
		if p.Language != "" {
			langCount[p.Language]++
		}
		if p.IsAIRelated(r.relevanceThreshold) {
			stats.AIProjectsCount++
		}
		if top == nil || p.Stars > top.Stars {
			top = p
		}
	}

	stats.AverageStars = float64(totalStars) / float64(len(projects))
	stats.TopLanguage = topLanguage(langCount)
	stats.TopProjectName = top.Name
	stats.TopProjectURL = top.URL
	stats.TopProjectStars = top.Stars
	return stats, nil
}

// topLanguage 返回出现最多的语言，同频时取字典序靠前的
func topLanguage(count map[string]int) string {
	langs := make([]string, 0, len(count))
	for lang := range count {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		if count[langs[i]] == count[langs[j]] {
			return langs[i] < langs[j]
		}
		return count[langs[i]] > count[langs[j]]
	})
	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}

// Search 根据关键词搜索名称、描述或语言
func (r *PostgresRepo) Search(ctx context.Context, query string) ([]*domain.Project, error) {
	var projects []*domain.Project
	likeQuery := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("name LIKE ? OR description LIKE ? OR language LIKE ?", likeQuery, likeQuery, likeQuery).
		Order("stars DESC").
		Limit(20).
		Find(&projects).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodePersistence, "搜索失败", err)
	}
	return projects, nil
}

// CleanupOldData 删除保留窗口之外的项目和原始归档
func (r *PostgresRepo) CleanupOldData(ctx context.Context) error {
	if r.retentionDays <= 0 {
		return nil
	}
	cutoffTime := r.nowFunc().AddDate(0, 0, -r.retentionDays)
	cutoffDate := cutoffTime.Format("2006-01-02")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date < ?", cutoffDate).Delete(&domain.Project{}).Error; err != nil {
			return err
		}
		return tx.Where("fetched_at < ?", cutoffTime).Delete(&domain.RawRecord{}).Error
	})
	if err != nil {
		return common.WrapError(common.ErrCodePersistence, "清理过期数据失败", err)
	}
	return nil
}
