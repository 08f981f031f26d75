package feishu

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkbitable "github.com/larksuite/oapi-sdk-go/v3/service/bitable/v1"

	"PaperTrend/internal/models"
	"PaperTrend/pkg/logger"
)

const tokenEndpoint = "https://open.feishu.cn/open-apis/auth/v3/tenant_access_token/internal"

// 论文表的固定列
var paperHeaders = []string{"标题", "作者", "来源", "期刊", "发布日期", "总分", "评分理由", "关键词", "链接"}

// Client 把评分结果同步到飞书多维表格
type Client struct {
	appID      string
	appSecret  string
	fileName   string
	httpClient *http.Client
	lark       *lark.Client
	log        *logger.Logger
}

// NewClient 创建飞书客户端，fileName 是创建的多维表格名称
func NewClient(appID, appSecret, fileName string) *Client {
	return &Client{
		appID:      appID,
		appSecret:  appSecret,
		fileName:   fileName,
		httpClient: http.DefaultClient,
		lark:       lark.NewClient(appID, appSecret),
		log:        logger.WithPrefix("feishu"),
	}
}

// tenantAccessToken 获取 Tenant Access Token
func (c *Client) tenantAccessToken(ctx context.Context) (string, error) {
	data := map[string]string{
		"app_id":     c.appID,
		"app_secret": c.appSecret,
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal data error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", tokenEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request error: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			TenantAccessToken string `json:"tenant_access_token"`
			Expire            int    `json:"expire"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response error: %w", err)
	}

	if result.Code != 0 {
		return "", fmt.Errorf("API error: code=%d, msg=%s", result.Code, result.Msg)
	}

	return result.Data.TenantAccessToken, nil
}

// createBitable 创建多维表格，返回 appToken 和文档 URL
func (c *Client) createBitable(ctx context.Context, fileName, tenantAccessToken string) (string, string, error) {
	req := larkbitable.NewCreateAppReqBuilder().
		ReqApp(larkbitable.NewReqAppBuilder().
			Name(fileName).
			FolderToken("").
			Build()).
		Build()

	resp, err := c.lark.Bitable.V1.App.Create(ctx, req, larkcore.WithTenantAccessToken(tenantAccessToken))
	if err != nil {
		return "", "", fmt.Errorf("create bitable error: %w", err)
	}
	if !resp.Success() {
		return "", "", fmt.Errorf("create bitable failed: logId=%s, error=%s",
			resp.RequestId(), larkcore.Prettify(resp.CodeError))
	}

	appToken := resp.Data.App.AppToken
	url := ""
	if resp.Data.App.Url != nil {
		url = *resp.Data.App.Url
	}
	return *appToken, url, nil
}

// createTable 在多维表格中创建数据表
func (c *Client) createTable(ctx context.Context, appToken, tableName string, headers []string, tenantAccessToken string) (string, error) {
	// 末尾留一个给人工批注的空列
	fields := make([]*larkbitable.AppTableCreateHeader, 0, len(headers)+1)
	for _, header := range headers {
		fields = append(fields, larkbitable.NewAppTableCreateHeaderBuilder().
			FieldName(header).
			Type(1).
			Build())
	}
	fields = append(fields, larkbitable.NewAppTableCreateHeaderBuilder().
		FieldName("评价").
		Type(1).
		Build())

	req := larkbitable.NewCreateAppTableReqBuilder().
		AppToken(appToken).
		Body(larkbitable.NewCreateAppTableReqBodyBuilder().
			Table(larkbitable.NewReqTableBuilder().
				Name(tableName).
				DefaultViewName("默认视图").
				Fields(fields).
				Build()).
			Build()).
		Build()

	resp, err := c.lark.Bitable.V1.AppTable.Create(ctx, req, larkcore.WithTenantAccessToken(tenantAccessToken))
	if err != nil {
		return "", fmt.Errorf("create table error: %w", err)
	}
	if !resp.Success() {
		return "", fmt.Errorf("create table failed: logId=%s, error=%s",
			resp.RequestId(), larkcore.Prettify(resp.CodeError))
	}
	if resp.Data.TableId == nil {
		return "", fmt.Errorf("tableId is nil")
	}

	return *resp.Data.TableId, nil
}

// addRecords 向数据表批量写入记录
func (c *Client) addRecords(ctx context.Context, appToken, tableID string, records []*larkbitable.AppTableRecord, tenantAccessToken string) error {
	batchSize := 1000

	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]

		req := larkbitable.NewBatchCreateAppTableRecordReqBuilder().
			AppToken(appToken).
			TableId(tableID).
			Body(larkbitable.NewBatchCreateAppTableRecordReqBodyBuilder().
				Records(batch).
				Build()).
			Build()

		resp, err := c.lark.Bitable.V1.AppTableRecord.BatchCreate(ctx, req, larkcore.WithTenantAccessToken(tenantAccessToken))
		if err != nil {
			return fmt.Errorf("add records error: %w", err)
		}
		if !resp.Success() {
			return fmt.Errorf("add records failed: logId=%s, error=%s",
				resp.RequestId(), larkcore.Prettify(resp.CodeError))
		}
	}

	return nil
}

// upload 建表并写入记录，返回多维表格 URL
func (c *Client) upload(ctx context.Context, headers []string, records []*larkbitable.AppTableRecord) (string, error) {
	tenantAccessToken, err := c.tenantAccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("获取 tenant access token 失败: %w", err)
	}

	appToken, bitableURL, err := c.createBitable(ctx, c.fileName, tenantAccessToken)
	if err != nil {
		return "", fmt.Errorf("创建多维表格失败: %w", err)
	}

	tableID, err := c.createTable(ctx, appToken, "数据集", headers, tenantAccessToken)
	if err != nil {
		return "", fmt.Errorf("创建数据表失败: %w", err)
	}

	if err := c.addRecords(ctx, appToken, tableID, records, tenantAccessToken); err != nil {
		return "", fmt.Errorf("添加记录失败: %w", err)
	}

	return bitableURL, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// UploadPapers 把评分后的论文上传为多维表格，返回文档 URL
func (c *Client) UploadPapers(ctx context.Context, papers []*models.Paper) (string, error) {
	if len(papers) == 0 {
		return "", fmt.Errorf("没有可上传的论文")
	}

	records := make([]*larkbitable.AppTableRecord, 0, len(papers))
	for _, p := range papers {
		fields := map[string]interface{}{
			"标题":   p.Title,
			"作者":   p.AuthorsCSV(),
			"来源":   p.Source,
			"期刊":   p.Venue,
			"发布日期": formatDate(p.FirstSubmittedAt),
			"总分":   fmt.Sprintf("%.1f", p.Score),
			"评分理由": p.ScoreReason,
			"关键词":  strings.Join(p.Keywords, ", "),
			"链接":   p.URL,
		}
		records = append(records, larkbitable.NewAppTableRecordBuilder().
			Fields(fields).
			Build())
	}

	c.log.Info("上传 %d 篇论文到飞书多维表格", len(papers))
	return c.upload(ctx, paperHeaders, records)
}

// UploadCSV 把本地 CSV 文件上传为多维表格，返回文档 URL
func (c *Client) UploadCSV(ctx context.Context, csvFilePath string) (string, error) {
	headers, rows, err := parseCSVFile(csvFilePath)
	if err != nil {
		return "", fmt.Errorf("解析 CSV 失败: %w", err)
	}

	c.log.Info("CSV 文件包含 %d 列，%d 行数据", len(headers), len(rows))

	records := make([]*larkbitable.AppTableRecord, len(rows))
	for i, row := range rows {
		fields := make(map[string]interface{})
		for j, header := range headers {
			if j < len(row) {
				fields[header] = row[j]
			}
		}
		records[i] = larkbitable.NewAppTableRecordBuilder().
			Fields(fields).
			Build()
	}

	return c.upload(ctx, headers, records)
}

// parseCSVFile 解析 CSV 文件并返回表头和数据行
func parseCSVFile(filePath string) ([]string, [][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("读取表头失败: %w", err)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("读取记录失败: %w", err)
	}

	return headers, rows, nil
}
