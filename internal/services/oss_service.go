package services

import (
	"freelyforms-backend/config"
	"strings"

	"github.com/aliyun/alibaba-cloud-sdk-go/services/sts"
)

type STSCredentials struct {
	AccessKeyId     string `json:"accessKeyId"`
	AccessKeySecret string `json:"accessKeySecret"`
	SecurityToken   string `json:"securityToken"`
	Expiration      string `json:"expiration"`
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
}

// stsRegion strips the "oss-" prefix; STS wants "cn-beijing", not "oss-cn-beijing".
func stsRegion(region string) string {
	if after, ok := strings.CutPrefix(region, "oss-"); ok {
		return after
	}
	return region
}

// GetOSSTSToken assumes the archive role and returns short-lived credentials.
func GetOSSTSToken(cfg *config.Config) (*STSCredentials, error) {
	client, err := sts.NewClientWithAccessKey(stsRegion(cfg.OSSRegion), cfg.OSSAccessKeyID, cfg.OSSAccessKeySecret)
	if err != nil {
		return nil, err
	}

	request := sts.CreateAssumeRoleRequest()
	request.Scheme = "https"
	request.RoleArn = cfg.OSSRoleArn
	request.RoleSessionName = "freelyforms-export"
	request.DurationSeconds = "900"

	response, err := client.AssumeRole(request)
	if err != nil {
		return nil, err
	}

	return &STSCredentials{
		AccessKeyId:     response.Credentials.AccessKeyId,
		AccessKeySecret: response.Credentials.AccessKeySecret,
		SecurityToken:   response.Credentials.SecurityToken,
		Expiration:      response.Credentials.Expiration,
		Region:          cfg.OSSRegion,
		Bucket:          cfg.OSSBucketName,
	}, nil
}
